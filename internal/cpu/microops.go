package cpu

import (
	"github.com/richardwooding/mcycle/internal/log"
)

// microOp is one M-cycle step of an instruction.
type microOp uint8

const (
	opNop microOp = iota

	// Control
	opHalt
	opStop
	opDI
	opEI
	opIllegal

	// Immediate operands and branches
	opReadImm
	opReadImmCond
	opCond
	opJR
	opSetPC
	opSetPCEnable
	opJumpHL

	// 8-bit loads
	opLoadRegReg
	opLoadRegImm
	opLoadRegHL
	opStoreHLReg
	opWriteHLScratch
	opStoreAInd
	opLoadAInd
	opWriteHigh
	opReadHigh
	opWriteCA
	opReadCA
	opWriteAbsA
	opReadAbsA

	// 16-bit loads and arithmetic
	opLoadPairImm
	opWriteSPLo
	opWriteSPHi
	opLoadSPHL
	opLoadHLSP
	opAddSP
	opAddHL
	opIncPair
	opDecPair

	// 8-bit arithmetic
	opIncReg
	opDecReg
	opReadHL
	opIncWriteHL
	opDecWriteHL
	opALUReg
	opALUHL
	opALUImm
	opAccumulator

	// Stack
	opDecSP
	opPushHi
	opPushLo
	opPushPCHi
	opPushPCLo
	opPushPCLoJump
	opPushPCLoVec
	opJumpVec
	opPopByte
	opPopPair

	// CB prefixed
	opRotateReg
	opRotateWriteHL
	opBitReg
	opBitHL
	opResReg
	opResWriteHL
	opSetReg
	opSetWriteHL
)

// Instruction is a decoded instruction in flight: its template plus the
// state built up by the micro-ops executed so far.
type Instruction struct {
	t   *template
	pos int

	// scratch holds bytes read by earlier micro-ops, in order.
	scratch [2]uint8
	nbytes  int
	// buf is a 16-bit scratch value.
	buf uint16
	// cond is the result of the last condition test.
	cond bool
}

// Mnemonic returns the instruction text, or "" before the first fetch.
func (in *Instruction) Mnemonic() string {
	if in.t == nil {
		return ""
	}
	return in.t.mnemonic
}

// Remaining returns the number of M-cycles left.
func (in *Instruction) Remaining() int {
	if in.t == nil {
		return 0
	}
	return in.t.n - in.pos
}

// Cycles returns the M-cycles the instruction takes when it runs to the end.
func (in *Instruction) Cycles() int {
	if in.t == nil {
		return 0
	}
	return in.t.n
}

func (in *Instruction) done() bool {
	return in.Remaining() == 0
}

func (in *Instruction) push(v uint8) {
	if in.nbytes < len(in.scratch) {
		in.scratch[in.nbytes] = v
		in.nbytes++
	}
}

// word joins the first two scratch bytes as little-endian.
func (in *Instruction) word() uint16 {
	return uint16(in.scratch[1])<<8 | uint16(in.scratch[0])
}

// abort drops the remaining micro-ops, as a failed condition does.
func (in *Instruction) abort() {
	in.pos = in.t.n
}

// readImm reads the byte at PC and advances PC.
func (c *CPU) readImm(bus Bus) uint8 {
	v := bus.Read(c.Registers.PC)
	c.Registers.PC++
	return v
}

// execute runs one micro-op of the current instruction.
func (c *CPU) execute(op microOp, bus Bus) {
	in := &c.inst
	t := in.t
	r := c.Registers

	switch op {
	case opNop:

	case opHalt:
		ic := bus.Interrupts()
		if !ic.IME && ic.Pending() != 0 {
			ic.HaltBug = true
		}
		ic.Halted = true
	case opStop:
		// STOP is two bytes long; without a CGB speed switch the DMG only
		// resumes on a joypad press, which the core treats as immediate.
		r.PC++
		log.ModCPU.WithField("pc", r.PC-2).Debugf("STOP")
	case opDI:
		bus.Interrupts().DisableIME()
	case opEI:
		bus.Interrupts().RequestEI()
	case opIllegal:
		log.ModCPU.WithField("pc", c.fetchPC).Warnf("%s executed as NOP", t.mnemonic)

	case opReadImm:
		in.push(c.readImm(bus))
	case opReadImmCond:
		in.push(c.readImm(bus))
		c.test(t.cc)
	case opCond:
		c.test(t.cc)
	case opJR:
		r.PC += uint16(int8(in.scratch[0])) //nolint:gosec // G115: sign extension of the offset
	case opSetPC:
		r.PC = in.word()
	case opSetPCEnable:
		r.PC = in.word()
		bus.Interrupts().EnableIME()
	case opJumpHL:
		r.PC = r.HL()

	case opLoadRegReg:
		r.setReg8(t.dst, r.reg8(t.src))
	case opLoadRegImm:
		r.setReg8(t.dst, c.readImm(bus))
	case opLoadRegHL:
		r.setReg8(t.dst, bus.Read(r.HL()))
	case opStoreHLReg:
		bus.Write(r.HL(), r.reg8(t.src))
	case opWriteHLScratch:
		bus.Write(r.HL(), in.scratch[0])
	case opStoreAInd:
		bus.Write(c.indirect(), r.A)
	case opLoadAInd:
		r.A = bus.Read(c.indirect())
	case opWriteHigh:
		bus.Write(0xFF00|uint16(in.scratch[0]), r.A)
	case opReadHigh:
		r.A = bus.Read(0xFF00 | uint16(in.scratch[0]))
	case opWriteCA:
		bus.Write(0xFF00|uint16(r.C), r.A)
	case opReadCA:
		r.A = bus.Read(0xFF00 | uint16(r.C))
	case opWriteAbsA:
		bus.Write(in.word(), r.A)
	case opReadAbsA:
		r.A = bus.Read(in.word())

	case opLoadPairImm:
		in.push(c.readImm(bus))
		r.setPair(t.rp, in.word())
	case opWriteSPLo:
		bus.Write(in.word(), uint8(r.SP)) //nolint:gosec // G115: low byte
	case opWriteSPHi:
		bus.Write(in.word()+1, uint8(r.SP>>8)) //nolint:gosec // G115: high byte
	case opLoadSPHL:
		r.SP = r.HL()
	case opLoadHLSP:
		r.SetHL(c.addSPOffset(in.scratch[0]))
	case opAddSP:
		r.SP = c.addSPOffset(in.scratch[0])
	case opAddHL:
		r.SetHL(c.add16(r.HL(), r.pair(t.rp)))
	case opIncPair:
		r.setPair(t.rp, r.pair(t.rp)+1)
	case opDecPair:
		r.setPair(t.rp, r.pair(t.rp)-1)

	case opIncReg:
		r.setReg8(t.dst, c.inc8(r.reg8(t.dst)))
	case opDecReg:
		r.setReg8(t.dst, c.dec8(r.reg8(t.dst)))
	case opReadHL:
		in.push(bus.Read(r.HL()))
	case opIncWriteHL:
		bus.Write(r.HL(), c.inc8(in.scratch[0]))
	case opDecWriteHL:
		bus.Write(r.HL(), c.dec8(in.scratch[0]))
	case opALUReg:
		c.alu(t.op, r.reg8(t.src))
	case opALUHL:
		c.alu(t.op, bus.Read(r.HL()))
	case opALUImm:
		c.alu(t.op, c.readImm(bus))
	case opAccumulator:
		c.accumulate(t.op)

	case opDecSP:
		r.SP--
	case opPushHi:
		in.buf = r.stackPair(t.rp)
		bus.Write(r.SP, uint8(in.buf>>8)) //nolint:gosec // G115: high byte
		r.SP--
	case opPushLo:
		bus.Write(r.SP, uint8(in.buf)) //nolint:gosec // G115: low byte
	case opPushPCHi:
		bus.Write(r.SP, uint8(r.PC>>8)) //nolint:gosec // G115: high byte
		r.SP--
	case opPushPCLo:
		bus.Write(r.SP, uint8(r.PC)) //nolint:gosec // G115: low byte
	case opPushPCLoJump:
		bus.Write(r.SP, uint8(r.PC)) //nolint:gosec // G115: low byte
		r.PC = in.word()
	case opPushPCLoVec:
		bus.Write(r.SP, uint8(r.PC)) //nolint:gosec // G115: low byte
		r.PC = t.vec
	case opJumpVec:
		r.PC = t.vec
	case opPopByte:
		in.push(bus.Read(r.SP))
		r.SP++
	case opPopPair:
		in.push(bus.Read(r.SP))
		r.SP++
		r.setStackPair(t.rp, in.word())

	case opRotateReg:
		r.setReg8(t.dst, c.rotate(t.op, r.reg8(t.dst)))
	case opRotateWriteHL:
		bus.Write(r.HL(), c.rotate(t.op, in.scratch[0]))
	case opBitReg:
		c.bit(t.bit, r.reg8(t.dst))
	case opBitHL:
		c.bit(t.bit, bus.Read(r.HL()))
	case opResReg:
		r.setReg8(t.dst, r.reg8(t.dst)&^(1<<t.bit))
	case opResWriteHL:
		bus.Write(r.HL(), in.scratch[0]&^(1<<t.bit))
	case opSetReg:
		r.setReg8(t.dst, r.reg8(t.dst)|1<<t.bit)
	case opSetWriteHL:
		bus.Write(r.HL(), in.scratch[0]|1<<t.bit)
	}
}

// test evaluates the instruction's condition and aborts it when false.
func (c *CPU) test(cc uint8) {
	c.inst.cond = c.Registers.condition(cc)
	if !c.inst.cond {
		c.inst.abort()
	}
}

// indirect returns the address for LD (rr),A and LD A,(rr), applying the
// HL post-increment and post-decrement forms.
func (c *CPU) indirect() uint16 {
	r := c.Registers
	switch c.inst.t.rp {
	case 0:
		return r.BC()
	case 1:
		return r.DE()
	case 2:
		hl := r.HL()
		r.SetHL(hl + 1)
		return hl
	default:
		hl := r.HL()
		r.SetHL(hl - 1)
		return hl
	}
}
