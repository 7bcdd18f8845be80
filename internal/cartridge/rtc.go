package cartridge

import "github.com/richardwooding/mcycle/internal/bits"

// RTC register selectors, written to 0x4000-0x5FFF of an MBC3.
const (
	RTCSeconds  = 0x08
	RTCMinutes  = 0x09
	RTCHours    = 0x0A
	RTCDaysLow  = 0x0B
	RTCDaysHigh = 0x0C
)

// Days-high register bits.
const (
	dhDayBit8 = 0
	dhHalt    = 6
	dhCarry   = 7
)

// MCyclesPerSecond is the M-cycle rate of the DMG.
const MCyclesPerSecond = 1 << 20

// RTC is the MBC3 real-time clock. It counts emulated time, so it advances
// only while the emulator runs and stays in step with it.
type RTC struct {
	seconds uint8
	minutes uint8
	hours   uint8
	days    uint16
	halt    bool
	carry   bool

	latched [5]uint8
	cycles  uint32
}

// Tick advances the clock by one M-cycle.
func (r *RTC) Tick() {
	if r.halt {
		return
	}
	r.cycles++
	if r.cycles < MCyclesPerSecond {
		return
	}
	r.cycles = 0
	r.advanceSecond()
}

// The counters are wider than their ranges; a value written out of range
// counts up to the register width and wraps without a carry.
func (r *RTC) advanceSecond() {
	r.seconds = (r.seconds + 1) & 0x3F
	if r.seconds != 60 {
		return
	}
	r.seconds = 0
	r.minutes = (r.minutes + 1) & 0x3F
	if r.minutes != 60 {
		return
	}
	r.minutes = 0
	r.hours = (r.hours + 1) & 0x1F
	if r.hours != 24 {
		return
	}
	r.hours = 0
	r.days++
	if r.days > 0x1FF {
		r.days = 0
		r.carry = true
	}
}

func (r *RTC) daysHigh() uint8 {
	v := uint8(r.days>>8) & 0x01
	v = bits.SetTo(v, dhHalt, r.halt)
	return bits.SetTo(v, dhCarry, r.carry)
}

// Latch copies the running counters into the readable registers.
func (r *RTC) Latch() {
	r.latched = [5]uint8{r.seconds, r.minutes, r.hours, uint8(r.days), r.daysHigh()}
}

// Read returns a latched register.
func (r *RTC) Read(reg uint8) uint8 {
	if reg < RTCSeconds || reg > RTCDaysHigh {
		return 0xFF
	}
	return r.latched[reg-RTCSeconds]
}

// Write sets a running counter. Writing the seconds resets the sub-second
// divider.
func (r *RTC) Write(reg, value uint8) {
	switch reg {
	case RTCSeconds:
		r.seconds = value & 0x3F
		r.cycles = 0
	case RTCMinutes:
		r.minutes = value & 0x3F
	case RTCHours:
		r.hours = value & 0x1F
	case RTCDaysLow:
		r.days = r.days&0x100 | uint16(value)
	case RTCDaysHigh:
		r.days = r.days&0xFF | uint16(bits.Val(value, dhDayBit8))<<8
		r.halt = bits.Test(value, dhHalt)
		r.carry = bits.Test(value, dhCarry)
	}
}
