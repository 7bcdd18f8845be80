package cartridge

// MBC1 supports up to 2 MiB of ROM and 32 KiB of RAM.
//
// Control registers (write-only):
//   - 0x0000-0x1FFF: RAM enable (low nibble 0xA enables)
//   - 0x2000-0x3FFF: ROM bank, low 5 bits
//   - 0x4000-0x5FFF: RAM bank in RAM mode, ROM bank bits 5-6 in ROM mode
//   - 0x6000-0x7FFF: banking mode (0 = ROM, 1 = RAM)
type MBC1 struct {
	header *Header
	rom    []byte
	ram    []byte

	ramEnabled  bool
	romBankLow  uint8
	romBankHigh uint8
	ramBank     uint8
	ramMode     bool
}

func newMBC1(rom []byte, header *Header) *MBC1 {
	return &MBC1{
		header: header,
		rom:    rom,
		ram:    newRAM(header),
	}
}

// ROMBank returns the bank mapped at 0x4000-0x7FFF. A low part of zero
// selects the next bank, so 0x00, 0x20, 0x40 and 0x60 are never mapped there.
func (c *MBC1) ROMBank() int {
	bank := int(c.romBankHigh)<<5 | int(c.romBankLow)
	if c.romBankLow == 0 {
		bank++
	}
	return bank % (len(c.rom) / romBankSize)
}

func (c *MBC1) ramOffset(addr uint16) int {
	off := int(addr - 0xA000)
	if c.ramMode {
		off += int(c.ramBank) * ramBankSize
	}
	return off % len(c.ram)
}

// Read reads a byte from the cartridge.
func (c *MBC1) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return c.rom[addr]
	case addr < 0x8000:
		return romByte(c.rom, c.ROMBank(), addr-0x4000)
	case addr >= 0xA000 && addr < 0xC000:
		if !c.ramEnabled || len(c.ram) == 0 {
			return 0xFF
		}
		return c.ram[c.ramOffset(addr)]
	}
	return 0xFF
}

// Write updates a control register or stores to RAM.
func (c *MBC1) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		c.romBankLow = value & 0x1F
	case addr < 0x6000:
		if c.ramMode {
			c.ramBank = value & 0x03
		} else {
			c.romBankHigh = value & 0x03
		}
	case addr < 0x8000:
		c.ramMode = value&0x01 != 0
	case addr >= 0xA000 && addr < 0xC000:
		if c.ramEnabled && len(c.ram) > 0 {
			c.ram[c.ramOffset(addr)] = value
		}
	}
}

func (c *MBC1) Header() *Header { return c.header }

func (c *MBC1) HasBattery() bool { return c.header.CartridgeType.HasBattery() && c.ram != nil }

func (c *MBC1) RAM() []byte { return copyRAM(c.ram) }

func (c *MBC1) LoadRAM(data []byte) error { return loadRAM(c.ram, data) }
