package cartridge

// MBC0 is a cartridge without a bank controller: 32 KiB of ROM mapped
// directly and, for the ROM+RAM variants, up to 8 KiB of unbanked RAM.
type MBC0 struct {
	header *Header
	rom    []byte
	ram    []byte
}

func newMBC0(rom []byte, header *Header) *MBC0 {
	return &MBC0{
		header: header,
		rom:    rom,
		ram:    newRAM(header),
	}
}

// Read reads a byte from the cartridge.
func (c *MBC0) Read(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		if int(addr) < len(c.rom) {
			return c.rom[addr]
		}
	case addr >= 0xA000 && addr < 0xC000:
		if off := int(addr - 0xA000); off < len(c.ram) {
			return c.ram[off]
		}
	}
	return 0xFF
}

// Write stores to RAM when present. ROM writes are ignored.
func (c *MBC0) Write(addr uint16, value uint8) {
	if addr >= 0xA000 && addr < 0xC000 {
		if off := int(addr - 0xA000); off < len(c.ram) {
			c.ram[off] = value
		}
	}
}

func (c *MBC0) Header() *Header { return c.header }

func (c *MBC0) HasBattery() bool { return c.header.CartridgeType.HasBattery() && c.ram != nil }

func (c *MBC0) RAM() []byte { return copyRAM(c.ram) }

func (c *MBC0) LoadRAM(data []byte) error { return loadRAM(c.ram, data) }
