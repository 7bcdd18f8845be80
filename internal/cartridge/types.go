package cartridge

import "fmt"

// CartridgeType is the cartridge type code at 0x0147.
//
//nolint:revive // CartridgeType reads better than Type at call sites
type CartridgeType byte

// Cartridge types as defined in the header at 0x0147.
const (
	TypeROMOnly             CartridgeType = 0x00
	TypeMBC1                CartridgeType = 0x01
	TypeMBC1RAM             CartridgeType = 0x02
	TypeMBC1RAMBattery      CartridgeType = 0x03
	TypeMBC2                CartridgeType = 0x05
	TypeMBC2Battery         CartridgeType = 0x06
	TypeROMRAM              CartridgeType = 0x08
	TypeROMRAMBattery       CartridgeType = 0x09
	TypeMMM01               CartridgeType = 0x0B
	TypeMMM01RAM            CartridgeType = 0x0C
	TypeMMM01RAMBattery     CartridgeType = 0x0D
	TypeMBC3TimerBattery    CartridgeType = 0x0F
	TypeMBC3TimerRAMBattery CartridgeType = 0x10
	TypeMBC3                CartridgeType = 0x11
	TypeMBC3RAM             CartridgeType = 0x12
	TypeMBC3RAMBattery      CartridgeType = 0x13
	TypeMBC5                CartridgeType = 0x19
	TypeMBC5RAM             CartridgeType = 0x1A
	TypeMBC5RAMBattery      CartridgeType = 0x1B
	TypePocketCamera        CartridgeType = 0xFC
	TypeHuC3                CartridgeType = 0xFE
	TypeHuC1RAMBattery      CartridgeType = 0xFF
)

var typeNames = map[CartridgeType]string{
	TypeROMOnly:             "ROM ONLY",
	TypeMBC1:                "MBC1",
	TypeMBC1RAM:             "MBC1+RAM",
	TypeMBC1RAMBattery:      "MBC1+RAM+BATTERY",
	TypeMBC2:                "MBC2",
	TypeMBC2Battery:         "MBC2+BATTERY",
	TypeROMRAM:              "ROM+RAM",
	TypeROMRAMBattery:       "ROM+RAM+BATTERY",
	TypeMMM01:               "MMM01",
	TypeMMM01RAM:            "MMM01+RAM",
	TypeMMM01RAMBattery:     "MMM01+RAM+BATTERY",
	TypeMBC3TimerBattery:    "MBC3+TIMER+BATTERY",
	TypeMBC3TimerRAMBattery: "MBC3+TIMER+RAM+BATTERY",
	TypeMBC3:                "MBC3",
	TypeMBC3RAM:             "MBC3+RAM",
	TypeMBC3RAMBattery:      "MBC3+RAM+BATTERY",
	TypeMBC5:                "MBC5",
	TypeMBC5RAM:             "MBC5+RAM",
	TypeMBC5RAMBattery:      "MBC5+RAM+BATTERY",
	TypePocketCamera:        "POCKET CAMERA",
	TypeHuC3:                "HuC3",
	TypeHuC1RAMBattery:      "HuC1+RAM+BATTERY",
}

// String returns a human-readable name for the cartridge type.
func (t CartridgeType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN (0x%02X)", byte(t))
}

// HasRAM reports whether the cartridge carries external RAM.
func (t CartridgeType) HasRAM() bool {
	switch t {
	case TypeMBC1RAM, TypeMBC1RAMBattery,
		TypeMBC2, TypeMBC2Battery,
		TypeROMRAM, TypeROMRAMBattery,
		TypeMMM01RAM, TypeMMM01RAMBattery,
		TypeMBC3TimerRAMBattery, TypeMBC3RAM, TypeMBC3RAMBattery,
		TypeMBC5RAM, TypeMBC5RAMBattery,
		TypeHuC1RAMBattery:
		return true
	}
	return false
}

// HasBattery reports whether RAM contents survive power off.
func (t CartridgeType) HasBattery() bool {
	switch t {
	case TypeMBC1RAMBattery, TypeMBC2Battery, TypeROMRAMBattery,
		TypeMMM01RAMBattery, TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery,
		TypeMBC3RAMBattery, TypeMBC5RAMBattery, TypeHuC1RAMBattery:
		return true
	}
	return false
}

// HasRTC reports whether the cartridge has an MBC3 real-time clock.
func (t CartridgeType) HasRTC() bool {
	return t == TypeMBC3TimerBattery || t == TypeMBC3TimerRAMBattery
}

// Supported reports whether New can build a controller for t.
func (t CartridgeType) Supported() bool {
	switch t {
	case TypeROMOnly, TypeROMRAM, TypeROMRAMBattery,
		TypeMBC1, TypeMBC1RAM, TypeMBC1RAMBattery,
		TypeMBC2, TypeMBC2Battery,
		TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery, TypeMBC3, TypeMBC3RAM, TypeMBC3RAMBattery:
		return true
	}
	return false
}
