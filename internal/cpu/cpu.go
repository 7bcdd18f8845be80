// Package cpu implements the Sharp SM83 CPU emulation for the Game Boy.
//
// The CPU advances one M-cycle per Tick. Every instruction is decoded into a
// fixed sequence of micro-ops, one per M-cycle, so that each bus access
// happens in the cycle the hardware performs it.
package cpu

import (
	"fmt"
	"io"

	"github.com/richardwooding/mcycle/internal/interrupt"
)

// Bus is the CPU's view of the memory bus.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	Interrupts() *interrupt.Controller
}

// prefixCB introduces the bit-operation opcode page.
const prefixCB = 0xCB

// CPU represents the Sharp SM83 CPU.
type CPU struct {
	Registers *Registers

	inst Instruction
	// fetchPC is the address of the current instruction's first byte.
	fetchPC uint16

	// Cycles counts M-cycles since reset.
	Cycles uint64

	trace io.Writer
}

// New creates a CPU with the post-boot register values.
func New() *CPU {
	return &CPU{Registers: NewRegisters()}
}

// Reset loads the post-boot register values and drops any instruction in
// flight.
func (c *CPU) Reset() {
	c.Registers.SetPostBoot()
	c.inst = Instruction{}
	c.Cycles = 0
}

// ResetForBootROM clears every register so that execution starts at 0x0000.
func (c *CPU) ResetForBootROM() {
	*c.Registers = Registers{}
	c.inst = Instruction{}
	c.Cycles = 0
}

// SetTrace enables a one-line-per-instruction execution trace. A nil
// writer disables it.
func (c *CPU) SetTrace(w io.Writer) {
	c.trace = w
}

// Current returns the instruction in flight.
func (c *CPU) Current() *Instruction {
	return &c.inst
}

// Tick advances the CPU by exactly one M-cycle.
func (c *CPU) Tick(bus Bus) {
	c.Cycles++
	ic := bus.Interrupts()

	ic.AdvanceEI()

	if c.inst.done() && ic.Pending() != 0 {
		switch {
		case ic.IME:
			c.dispatch(ic)
		case ic.Halted:
			ic.Halted = false
		}
	}

	if ic.Halted {
		return
	}

	if c.inst.done() {
		c.fetch(bus)
		return
	}
	c.step(bus)
}

// dispatch replaces the idle instruction with a call to the vector of the
// highest priority pending interrupt.
func (c *CPU) dispatch(ic *interrupt.Controller) {
	k, _ := ic.Next()
	ic.Acknowledge(k)
	ic.Halted = false
	if ic.HaltBug {
		// The byte after HALT was never consumed, so the return address
		// points back at it.
		ic.HaltBug = false
		c.Registers.PC--
	}
	c.fetchPC = c.Registers.PC
	c.inst = Instruction{t: &dispatchTable[k]}
}

// fetch reads and decodes the opcode at PC and runs its first micro-op in
// the same cycle.
func (c *CPU) fetch(bus Bus) {
	ic := bus.Interrupts()
	r := c.Registers

	c.fetchPC = r.PC
	opcode := bus.Read(r.PC)
	if ic.HaltBug {
		ic.HaltBug = false
	} else {
		r.PC++
	}

	t := &baseTable[opcode]
	if opcode == prefixCB {
		t = &cbTable[bus.Read(r.PC)]
		r.PC++
	}

	if c.trace != nil {
		c.writeTrace(opcode, t)
	}

	c.inst = Instruction{t: t}
	c.step(bus)
}

// step runs the next micro-op of the current instruction.
func (c *CPU) step(bus Bus) {
	op := c.inst.t.ops[c.inst.pos]
	c.inst.pos++
	c.execute(op, bus)
}

// writeTrace logs the instruction about to execute and the register state
// before it does.
func (c *CPU) writeTrace(opcode uint8, t *template) {
	r := c.Registers
	_, _ = fmt.Fprintf(c.trace,
		"PC:%04X OP:%02X %-14s A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X\n",
		c.fetchPC, opcode, t.mnemonic, r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L, r.SP)
}
