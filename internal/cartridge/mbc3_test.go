package cartridge

import "testing"

func TestMBC3ROMBanking(t *testing.T) {
	c := mustNew(t, buildROM(TypeMBC3, 6, 0))

	tests := []struct {
		write uint8
		want  uint8
	}{
		{0x00, 0x01},
		{0x01, 0x01},
		{0x20, 0x20},
		{0x7F, 0x7F},
		{0xC5, 0x45},
	}
	for _, tt := range tests {
		c.Write(0x2000, tt.write)
		if got := c.Read(0x4000); got != tt.want {
			t.Errorf("bank write 0x%02X: Read(0x4000) = 0x%02X, want 0x%02X", tt.write, got, tt.want)
		}
	}
}

func TestMBC3RAMBanks(t *testing.T) {
	c := mustNew(t, buildROM(TypeMBC3RAMBattery, 0, 3))
	c.Write(0x0000, 0x0A)
	for bank := uint8(0); bank < 4; bank++ {
		c.Write(0x4000, bank)
		c.Write(0xB000, 0xA0+bank)
	}
	for bank := uint8(0); bank < 4; bank++ {
		c.Write(0x4000, bank)
		if got := c.Read(0xB000); got != 0xA0+bank {
			t.Errorf("bank %d: Read(0xB000) = 0x%02X, want 0x%02X", bank, got, 0xA0+bank)
		}
	}
}

func TestMBC3WithoutRTCReadsFF(t *testing.T) {
	c := mustNew(t, buildROM(TypeMBC3RAM, 0, 2))
	c.Write(0x0000, 0x0A)
	c.Write(0x4000, RTCSeconds)
	if got := c.Read(0xA000); got != 0xFF {
		t.Errorf("Read(RTC) without clock = 0x%02X, want 0xFF", got)
	}
}

func TestMBC3RTCLatch(t *testing.T) {
	c := mustNew(t, buildROM(TypeMBC3TimerRAMBattery, 0, 2)).(*MBC3)
	c.Write(0x0000, 0x0A)

	for i := 0; i < 3*MCyclesPerSecond; i++ {
		c.Tick()
	}

	c.Write(0x4000, RTCSeconds)
	if got := c.Read(0xA000); got != 0 {
		t.Errorf("seconds before latch = %d, want 0", got)
	}

	c.Write(0x6000, 0x00)
	c.Write(0x6000, 0x01)
	if got := c.Read(0xA000); got != 3 {
		t.Errorf("seconds after latch = %d, want 3", got)
	}

	// Further time is invisible until the next latch.
	for i := 0; i < MCyclesPerSecond; i++ {
		c.Tick()
	}
	if got := c.Read(0xA000); got != 3 {
		t.Errorf("seconds without relatch = %d, want 3", got)
	}

	// A lone 0x01 write does not latch.
	c.Write(0x6000, 0x01)
	if got := c.Read(0xA000); got != 3 {
		t.Errorf("seconds after 1->1 = %d, want 3", got)
	}
}

func TestRTCRollover(t *testing.T) {
	r := &RTC{}
	r.Write(RTCSeconds, 59)
	r.Write(RTCMinutes, 59)
	r.Write(RTCHours, 23)
	r.Write(RTCDaysLow, 0xFF)
	r.Write(RTCDaysHigh, 0x01)

	r.advanceSecond()
	r.Latch()

	want := map[uint8]uint8{
		RTCSeconds:  0,
		RTCMinutes:  0,
		RTCHours:    0,
		RTCDaysLow:  0,
		RTCDaysHigh: 0x80,
	}
	for reg, v := range want {
		if got := r.Read(reg); got != v {
			t.Errorf("Read(0x%02X) = 0x%02X, want 0x%02X", reg, got, v)
		}
	}
}

func TestRTCHalt(t *testing.T) {
	r := &RTC{}
	r.Write(RTCDaysHigh, 0x40)
	for i := 0; i < 2*MCyclesPerSecond; i++ {
		r.Tick()
	}
	r.Latch()
	if got := r.Read(RTCSeconds); got != 0 {
		t.Errorf("seconds while halted = %d, want 0", got)
	}
	if got := r.Read(RTCDaysHigh); got != 0x40 {
		t.Errorf("days high = 0x%02X, want 0x40", got)
	}
}

func TestRTCDayCounter(t *testing.T) {
	r := &RTC{}
	r.Write(RTCDaysLow, 0xFF)
	r.Write(RTCHours, 23)
	r.Write(RTCMinutes, 59)
	r.Write(RTCSeconds, 59)
	r.advanceSecond()
	r.Latch()
	if got := r.Read(RTCDaysLow); got != 0x00 {
		t.Errorf("days low = 0x%02X, want 0x00", got)
	}
	if got := r.Read(RTCDaysHigh); got != 0x01 {
		t.Errorf("days high = 0x%02X, want 0x01", got)
	}
}
