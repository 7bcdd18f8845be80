// Package input implements the Game Boy joypad matrix behind the P1/JOYP
// register at 0xFF00.
package input

import (
	"fmt"
	"strings"

	"github.com/richardwooding/mcycle/internal/interrupt"
)

// Button is one of the eight joypad keys.
type Button uint8

// The first four are read through the direction row, the rest through the
// action row. Within a row the index selects the bit.
const (
	Right Button = iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

var buttonNames = [...]string{"Right", "Left", "Up", "Down", "A", "B", "Select", "Start"}

// Buttons lists every button in bit order.
var Buttons = [...]Button{Right, Left, Up, Down, A, B, Select, Start}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("Button(%d)", uint8(b))
}

// ParseButton maps a case-insensitive name to a Button.
func ParseButton(name string) (Button, error) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// P1 select bits; a 0 selects the row.
const (
	selectDirection = 0x10
	selectAction    = 0x20
)

// Joypad holds the button states and the row selection.
type Joypad struct {
	// pressed has bit i set while Button(i) is held.
	pressed uint8
	selects uint8

	request func(interrupt.Kind)
}

// New creates a joypad with no row selected.
func New(request func(interrupt.Kind)) *Joypad {
	return &Joypad{
		selects: selectDirection | selectAction,
		request: request,
	}
}

// Reset releases every button and deselects both rows.
func (j *Joypad) Reset() {
	j.pressed = 0
	j.selects = selectDirection | selectAction
}

// Pressed reports whether b is held.
func (j *Joypad) Pressed(b Button) bool {
	return j.pressed&(1<<b) != 0
}

// lines returns bits 0-3 of P1 as the CPU sees them, 0 meaning pressed.
func (j *Joypad) lines() uint8 {
	low := uint8(0x0F)
	if j.selects&selectDirection == 0 {
		low &^= j.pressed & 0x0F
	}
	if j.selects&selectAction == 0 {
		low &^= j.pressed >> 4
	}
	return low
}

// Read returns the P1/JOYP register value.
func (j *Joypad) Read() uint8 {
	return 0xC0 | j.selects | j.lines()
}

// Write updates the row selection; only bits 4 and 5 are writable.
func (j *Joypad) Write(value uint8) {
	j.update(func() {
		j.selects = value & (selectDirection | selectAction)
	})
}

// SetButton presses or releases b.
func (j *Joypad) SetButton(b Button, pressed bool) {
	j.update(func() {
		if pressed {
			j.pressed |= 1 << b
		} else {
			j.pressed &^= 1 << b
		}
	})
}

// update applies change and raises the joypad interrupt when a selected
// line goes from high to low.
func (j *Joypad) update(change func()) {
	before := j.lines()
	change()
	if before&^j.lines() != 0 && j.request != nil {
		j.request(interrupt.Joypad)
	}
}
