package cartridge

// MBC3 supports up to 2 MiB of ROM, 32 KiB of RAM and, on the TIMER
// variants, a real-time clock.
//
// Control registers (write-only):
//   - 0x0000-0x1FFF: RAM and RTC enable (low nibble 0xA enables)
//   - 0x2000-0x3FFF: ROM bank, 7 bits, 0 maps to 1
//   - 0x4000-0x5FFF: 0x00-0x03 select a RAM bank, 0x08-0x0C an RTC register
//   - 0x6000-0x7FFF: writing 0x00 then 0x01 latches the clock
type MBC3 struct {
	header *Header
	rom    []byte
	ram    []byte
	rtc    *RTC

	ramEnabled bool
	romBank    uint8
	bankSelect uint8
	latchWrite uint8
}

func newMBC3(rom []byte, header *Header) *MBC3 {
	c := &MBC3{
		header:     header,
		rom:        rom,
		ram:        newRAM(header),
		romBank:    1,
		latchWrite: 0xFF,
	}
	if header.CartridgeType.HasRTC() {
		c.rtc = &RTC{}
	}
	return c
}

// RTC returns the real-time clock, or nil when the cartridge has none.
func (c *MBC3) RTC() *RTC {
	return c.rtc
}

// Tick advances the real-time clock by one M-cycle.
func (c *MBC3) Tick() {
	if c.rtc != nil {
		c.rtc.Tick()
	}
}

// Read reads a byte from the cartridge.
func (c *MBC3) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		return c.rom[addr]
	case addr < 0x8000:
		return romByte(c.rom, int(c.romBank), addr-0x4000)
	case addr >= 0xA000 && addr < 0xC000:
		if !c.ramEnabled {
			return 0xFF
		}
		switch {
		case c.bankSelect <= 0x03:
			if len(c.ram) == 0 {
				return 0xFF
			}
			return c.ram[c.ramOffset(addr)]
		case c.bankSelect >= RTCSeconds && c.bankSelect <= RTCDaysHigh && c.rtc != nil:
			return c.rtc.Read(c.bankSelect)
		}
	}
	return 0xFF
}

// Write updates a control register or stores to RAM or the clock.
func (c *MBC3) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		c.romBank = value & 0x7F
		if c.romBank == 0 {
			c.romBank = 1
		}
	case addr < 0x6000:
		c.bankSelect = value
	case addr < 0x8000:
		if c.latchWrite == 0x00 && value == 0x01 && c.rtc != nil {
			c.rtc.Latch()
		}
		c.latchWrite = value
	case addr >= 0xA000 && addr < 0xC000:
		if !c.ramEnabled {
			return
		}
		switch {
		case c.bankSelect <= 0x03:
			if len(c.ram) > 0 {
				c.ram[c.ramOffset(addr)] = value
			}
		case c.bankSelect >= RTCSeconds && c.bankSelect <= RTCDaysHigh && c.rtc != nil:
			c.rtc.Write(c.bankSelect, value)
		}
	}
}

func (c *MBC3) ramOffset(addr uint16) int {
	return (int(c.bankSelect)*ramBankSize + int(addr-0xA000)) % len(c.ram)
}

func (c *MBC3) Header() *Header { return c.header }

func (c *MBC3) HasBattery() bool { return c.header.CartridgeType.HasBattery() && c.ram != nil }

func (c *MBC3) RAM() []byte { return copyRAM(c.ram) }

func (c *MBC3) LoadRAM(data []byte) error { return loadRAM(c.ram, data) }
