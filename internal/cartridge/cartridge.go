package cartridge

import (
	"errors"
	"fmt"
)

// Cartridge is a ROM image behind its bank controller. Read and Write cover
// 0x0000-0x7FFF and 0xA000-0xBFFF of the CPU address space.
type Cartridge interface {
	// Read returns the byte at addr.
	Read(addr uint16) uint8

	// Write stores SRAM data or updates a bank controller register.
	Write(addr uint16, value uint8)

	// Header returns the parsed cartridge header.
	Header() *Header

	// HasBattery reports whether RAM should be persisted.
	HasBattery() bool

	// RAM returns a copy of the persistent RAM image.
	RAM() []byte

	// LoadRAM replaces the RAM image. The length must match RAM().
	LoadRAM(data []byte) error
}

// Ticker is implemented by cartridges with hardware that runs off the system
// clock, such as the MBC3 real-time clock. Tick is called once per M-cycle.
type Ticker interface {
	Tick()
}

var (
	// ErrInvalidCartridgeType indicates an unsupported or unknown cartridge type.
	ErrInvalidCartridgeType = errors.New("invalid or unsupported cartridge type")

	// ErrROMSizeMismatch indicates the image length disagrees with the header.
	ErrROMSizeMismatch = errors.New("ROM size does not match header")

	// ErrROMTooLarge indicates the image exceeds the 8 MiB maximum.
	ErrROMTooLarge = errors.New("ROM size exceeds maximum allowed size of 8 MiB")

	// ErrCGBOnly indicates a Game Boy Color exclusive game.
	ErrCGBOnly = errors.New("cartridge requires a Game Boy Color")

	// ErrRAMSizeMismatch indicates a RAM image of the wrong length.
	ErrRAMSizeMismatch = errors.New("RAM image size does not match cartridge")
)

// New parses the header of rom and builds the matching bank controller.
func New(rom []byte) (Cartridge, error) {
	if len(rom) > maxROMSizeBytes {
		return nil, fmt.Errorf("%w: got %d bytes", ErrROMTooLarge, len(rom))
	}

	header, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if header.CGBOnly() {
		return nil, fmt.Errorf("%w: %q", ErrCGBOnly, header.Title())
	}

	if want := header.ROMSizeBytes(); want == 0 || len(rom) != want {
		return nil, fmt.Errorf("%w: header declares %d bytes, got %d",
			ErrROMSizeMismatch, want, len(rom))
	}

	switch t := header.CartridgeType; t {
	case TypeROMOnly, TypeROMRAM, TypeROMRAMBattery:
		return newMBC0(rom, header), nil
	case TypeMBC1, TypeMBC1RAM, TypeMBC1RAMBattery:
		return newMBC1(rom, header), nil
	case TypeMBC2, TypeMBC2Battery:
		return newMBC2(rom, header), nil
	case TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery, TypeMBC3, TypeMBC3RAM, TypeMBC3RAMBattery:
		return newMBC3(rom, header), nil
	default:
		return nil, fmt.Errorf("%w: type 0x%02X (%s)", ErrInvalidCartridgeType, byte(t), t)
	}
}

// newRAM allocates external RAM as declared by the header.
func newRAM(h *Header) []byte {
	if !h.CartridgeType.HasRAM() {
		return nil
	}
	if n := h.RAMSizeBytes(); n > 0 {
		return make([]byte, n)
	}
	return nil
}

func copyRAM(ram []byte) []byte {
	if ram == nil {
		return nil
	}
	out := make([]byte, len(ram))
	copy(out, ram)
	return out
}

func loadRAM(ram, data []byte) error {
	if len(data) != len(ram) {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrRAMSizeMismatch, len(ram), len(data))
	}
	copy(ram, data)
	return nil
}

// romByte reads the byte at offset within bank, wrapping the bank number to
// the image size.
func romByte(rom []byte, bank int, offset uint16) uint8 {
	banks := len(rom) / romBankSize
	if banks == 0 {
		return 0xFF
	}
	return rom[(bank%banks)*romBankSize+int(offset)]
}
