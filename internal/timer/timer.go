// Package timer implements the Game Boy timer block.
//
// The timer consists of:
//   - DIV: upper 8 bits of the 16-bit system counter
//   - TIMA: timer counter, incremented at the rate selected by TAC
//   - TMA: value reloaded into TIMA after an overflow
//   - TAC: enable bit and clock select
//
// TIMA is clocked by falling edges of one bit of the system counter ANDed
// with the enable bit, which is why writes to DIV and TAC can produce extra
// increments.
package timer

import "github.com/richardwooding/mcycle/internal/interrupt"

// Register addresses.
const (
	DIV  = 0xFF04
	TIMA = 0xFF05
	TMA  = 0xFF06
	TAC  = 0xFF07
)

// TAC register bits.
const (
	tacEnableBit = 0x04
	tacClockMask = 0x03
)

// clocksPerMCycle is the number of system counter ticks per M-cycle.
const clocksPerMCycle = 4

// Bit of the system counter watched for each TAC clock select value.
var selectBit = [4]uint{9, 3, 5, 7}

// Frequencies in Hz for each TAC clock select value.
var frequencies = [4]int{4096, 262144, 65536, 16384}

// Timer is the DIV/TIMA/TMA/TAC block.
type Timer struct {
	sys  uint16
	tima uint8
	tma  uint8
	tac  uint8

	// reloadPending is set for the M-cycle after an overflow, during which
	// TIMA reads as zero.
	reloadPending bool

	request func(interrupt.Kind)
}

// New creates a timer that raises interrupts through request.
func New(request func(interrupt.Kind)) *Timer {
	return &Timer{request: request}
}

// Reset clears all registers.
func (t *Timer) Reset() {
	t.sys = 0
	t.tima = 0
	t.tma = 0
	t.tac = 0
	t.reloadPending = false
}

// SetSystemCounter sets the internal counter directly, used to reproduce the
// state the boot ROM leaves behind.
func (t *Timer) SetSystemCounter(v uint16) {
	t.sys = v
}

// SystemCounter returns the internal 16-bit counter.
func (t *Timer) SystemCounter() uint16 {
	return t.sys
}

// Frequency returns the TIMA rate selected by TAC in Hz.
func (t *Timer) Frequency() int {
	return frequencies[t.tac&tacClockMask]
}

// Enabled reports whether TAC enables TIMA.
func (t *Timer) Enabled() bool {
	return t.tac&tacEnableBit != 0
}

// Read reads a timer register.
func (t *Timer) Read(addr uint16) uint8 {
	switch addr {
	case DIV:
		return uint8(t.sys >> 8)
	case TIMA:
		return t.tima
	case TMA:
		return t.tma
	case TAC:
		return t.tac | 0xF8
	}
	return 0xFF
}

// Write writes a timer register.
func (t *Timer) Write(addr uint16, value uint8) {
	switch addr {
	case DIV:
		// Resetting the counter can drop the selected bit from 1 to 0.
		old := t.signal(t.sys, t.tac)
		t.sys = 0
		if old {
			t.incrementTIMA()
		}

	case TIMA:
		// A write during the reload cycle wins over the reload.
		t.tima = value
		t.reloadPending = false

	case TMA:
		t.tma = value

	case TAC:
		old := t.signal(t.sys, t.tac)
		t.tac = value & 0x07
		if old && !t.signal(t.sys, t.tac) {
			t.incrementTIMA()
		}
	}
}

// Tick advances the timer by one M-cycle.
func (t *Timer) Tick() {
	if t.reloadPending {
		t.reloadPending = false
		t.tima = t.tma
		if t.request != nil {
			t.request(interrupt.Timer)
		}
	}

	old := t.signal(t.sys, t.tac)
	t.sys += clocksPerMCycle
	if old && !t.signal(t.sys, t.tac) {
		t.incrementTIMA()
	}
}

// signal is the input of the TIMA edge detector: the selected counter bit
// ANDed with the enable bit.
func (t *Timer) signal(sys uint16, tac uint8) bool {
	if tac&tacEnableBit == 0 {
		return false
	}
	return sys&(1<<selectBit[tac&tacClockMask]) != 0
}

func (t *Timer) incrementTIMA() {
	t.tima++
	if t.tima == 0 {
		t.reloadPending = true
	}
}
