package cartridge

// MBC2 has 16 ROM banks and 512 half-bytes of built-in RAM. Bit 8 of the
// address of a write to 0x0000-0x3FFF picks the register: clear for RAM
// enable, set for ROM bank.
type MBC2 struct {
	header *Header
	rom    []byte
	ram    [mbc2RAMSize]uint8

	ramEnabled bool
	romBank    uint8
}

func newMBC2(rom []byte, header *Header) *MBC2 {
	return &MBC2{
		header:  header,
		rom:     rom,
		romBank: 1,
	}
}

// Read reads a byte from the cartridge. RAM is mirrored across 0xA000-0xBFFF
// and only the low nibble is stored.
func (c *MBC2) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return c.rom[addr]
	case addr < 0x8000:
		return romByte(c.rom, int(c.romBank), addr-0x4000)
	case addr >= 0xA000 && addr < 0xC000:
		if !c.ramEnabled {
			return 0xFF
		}
		return c.ram[addr&0x1FF] & 0x0F
	}
	return 0xFF
}

// Write updates a control register or stores to RAM.
func (c *MBC2) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x4000:
		if addr&0x0100 == 0 {
			c.ramEnabled = value&0x0F == 0x0A
			return
		}
		c.romBank = value & 0x0F
		if c.romBank == 0 {
			c.romBank = 1
		}
	case addr >= 0xA000 && addr < 0xC000:
		if c.ramEnabled {
			c.ram[addr&0x1FF] = value & 0x0F
		}
	}
}

func (c *MBC2) Header() *Header { return c.header }

func (c *MBC2) HasBattery() bool { return c.header.CartridgeType.HasBattery() }

func (c *MBC2) RAM() []byte { return copyRAM(c.ram[:]) }

func (c *MBC2) LoadRAM(data []byte) error {
	if err := loadRAM(c.ram[:], data); err != nil {
		return err
	}
	for i := range c.ram {
		c.ram[i] &= 0x0F
	}
	return nil
}
