// Package interrupt implements the DMG interrupt controller: the IE and IF
// registers, the master enable with its one-instruction EI delay, and the
// HALT state flags the CPU consults on every M-cycle.
package interrupt

import "github.com/richardwooding/mcycle/internal/bits"

// Kind is an interrupt source. Its value is the bit index in IE and IF.
type Kind uint8

const (
	VBlank Kind = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// Mask covers the five implemented interrupt bits.
const Mask = 0x1F

var kindNames = [...]string{"VBlank", "LCDC", "Timer", "Serial", "Joypad"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Vector is the address the CPU jumps to when k is dispatched.
func (k Kind) Vector() uint16 {
	return 0x40 + uint16(k)*8
}

// EIKey is the state of the delayed master enable.
type EIKey uint8

const (
	EIDisabled EIKey = iota
	EIRequested
	EIActive
)

// Controller holds all interrupt related CPU state.
type Controller struct {
	IE  uint8
	IF  uint8
	IME bool

	EIKey   EIKey
	HaltBug bool
	Halted  bool
}

// New returns a controller with everything cleared.
func New() *Controller {
	return &Controller{}
}

// Reset clears all state.
func (c *Controller) Reset() {
	*c = Controller{}
}

// Request raises the IF bit for k.
func (c *Controller) Request(k Kind) {
	c.IF = bits.Set(c.IF, uint8(k))
}

// Pending returns the set of interrupts that are both enabled and requested.
func (c *Controller) Pending() uint8 {
	return c.IE & c.IF & Mask
}

// Next returns the highest priority pending interrupt, which is the one with
// the lowest bit index.
func (c *Controller) Next() (Kind, bool) {
	p := c.Pending()
	for k := VBlank; k <= Joypad; k++ {
		if bits.Test(p, uint8(k)) {
			return k, true
		}
	}
	return 0, false
}

// Acknowledge clears the IF bit of k and the master enable, as the CPU does
// when it starts servicing k.
func (c *Controller) Acknowledge(k Kind) {
	c.IF = bits.Reset(c.IF, uint8(k))
	c.IME = false
}

// ReadIF returns IF as seen on the bus. The unused upper bits read as 1.
func (c *Controller) ReadIF() uint8 {
	return c.IF | 0xE0
}

// WriteIF stores the implemented IF bits.
func (c *Controller) WriteIF(v uint8) {
	c.IF = v & Mask
}

// RequestEI starts the EI delay. IME becomes true two ticks later, after the
// instruction that follows EI has executed.
func (c *Controller) RequestEI() {
	if !c.IME {
		c.EIKey = EIRequested
	}
}

// DisableIME implements DI. It also cancels an EI still in flight.
func (c *Controller) DisableIME() {
	c.IME = false
	c.EIKey = EIDisabled
}

// EnableIME sets IME immediately, as RETI does.
func (c *Controller) EnableIME() {
	c.IME = true
	c.EIKey = EIDisabled
}

// AdvanceEI moves the EI delay forward by one tick.
func (c *Controller) AdvanceEI() {
	switch c.EIKey {
	case EIRequested:
		c.EIKey = EIActive
	case EIActive:
		c.EIKey = EIDisabled
		c.IME = true
	}
}
