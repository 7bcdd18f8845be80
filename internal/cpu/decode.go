package cpu

import (
	"fmt"

	"github.com/richardwooding/mcycle/internal/interrupt"
)

// maxOps is the longest micro-op sequence, CALL nn.
const maxOps = 6

// template is the decoded, immutable part of an instruction. One exists per
// base opcode, per CB opcode and per interrupt vector.
type template struct {
	mnemonic string
	ops      [maxOps]microOp
	n        int

	// Operands pulled out of the opcode bits.
	dst, src uint8 // 8-bit register index, 6 meaning (HL)
	rp       uint8 // register pair index
	op       uint8 // ALU, rotate or accumulator operation
	cc       uint8 // condition code
	bit      uint8
	vec      uint16
}

var (
	baseTable     [256]template
	cbTable       [256]template
	dispatchTable [5]template
)

var (
	r8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	rpNames = [4]string{"BC", "DE", "HL", "SP"}
	r2Names = [4]string{"BC", "DE", "HL", "AF"}
	ccNames = [4]string{"NZ", "Z", "NC", "C"}

	aluNames = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
	rotNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}
	accNames = [8]string{"RLCA", "RRCA", "RLA", "RRA", "DAA", "CPL", "SCF", "CCF"}
	indNames = [4]string{"(BC)", "(DE)", "(HL+)", "(HL-)"}
)

func init() {
	for op := 0; op < 256; op++ {
		baseTable[op] = decodeBase(uint8(op))
		cbTable[op] = decodeCB(uint8(op))
	}
	for k := interrupt.VBlank; k <= interrupt.Joypad; k++ {
		t := seq(fmt.Sprintf("INT %02XH", k.Vector()), opNop, opDecSP, opPushPCHi, opPushPCLo, opJumpVec)
		t.vec = k.Vector()
		dispatchTable[k] = t
	}
}

// seq builds a template from a mnemonic and its micro-ops.
func seq(mnemonic string, ops ...microOp) template {
	t := template{mnemonic: mnemonic, n: len(ops)}
	copy(t.ops[:], ops)
	return t
}

// decodeBase splits an opcode as xxyyyzzz and dispatches on the family.
func decodeBase(opcode uint8) template {
	x, y, z := opcode>>6, (opcode>>3)&7, opcode&7
	p, q := y>>1, y&1

	switch x {
	case 0:
		return decodeX0(y, z, p, q)
	case 1:
		return decodeLoad(y, z)
	case 2:
		var t template
		if z == 6 {
			t = seq(aluNames[y]+"(HL)", opNop, opALUHL)
		} else {
			t = seq(aluNames[y]+r8Names[z], opALUReg)
		}
		t.op, t.src = y, z
		return t
	default:
		return decodeX3(opcode, y, z, p, q)
	}
}

func decodeX0(y, z, p, q uint8) template {
	var t template
	switch z {
	case 0:
		switch {
		case y == 0:
			t = seq("NOP", opNop)
		case y == 1:
			t = seq("LD (a16),SP", opNop, opReadImm, opReadImm, opWriteSPLo, opWriteSPHi)
		case y == 2:
			t = seq("STOP", opStop)
		case y == 3:
			t = seq("JR r8", opNop, opReadImm, opJR)
		default:
			t = seq("JR "+ccNames[y-4]+",r8", opNop, opReadImmCond, opJR)
			t.cc = y - 4
		}
	case 1:
		if q == 0 {
			t = seq("LD "+rpNames[p]+",d16", opNop, opReadImm, opLoadPairImm)
		} else {
			t = seq("ADD HL,"+rpNames[p], opNop, opAddHL)
		}
		t.rp = p
	case 2:
		if q == 0 {
			t = seq("LD "+indNames[p]+",A", opNop, opStoreAInd)
		} else {
			t = seq("LD A,"+indNames[p], opNop, opLoadAInd)
		}
		t.rp = p
	case 3:
		if q == 0 {
			t = seq("INC "+rpNames[p], opNop, opIncPair)
		} else {
			t = seq("DEC "+rpNames[p], opNop, opDecPair)
		}
		t.rp = p
	case 4:
		if y == 6 {
			t = seq("INC (HL)", opNop, opReadHL, opIncWriteHL)
		} else {
			t = seq("INC "+r8Names[y], opIncReg)
		}
		t.dst = y
	case 5:
		if y == 6 {
			t = seq("DEC (HL)", opNop, opReadHL, opDecWriteHL)
		} else {
			t = seq("DEC "+r8Names[y], opDecReg)
		}
		t.dst = y
	case 6:
		if y == 6 {
			t = seq("LD (HL),d8", opNop, opReadImm, opWriteHLScratch)
		} else {
			t = seq("LD "+r8Names[y]+",d8", opNop, opLoadRegImm)
		}
		t.dst = y
	case 7:
		t = seq(accNames[y], opAccumulator)
		t.op = y
	}
	return t
}

// decodeLoad covers the LD r,r' matrix and HALT.
func decodeLoad(y, z uint8) template {
	var t template
	switch {
	case y == 6 && z == 6:
		return seq("HALT", opHalt)
	case z == 6:
		t = seq("LD "+r8Names[y]+",(HL)", opNop, opLoadRegHL)
	case y == 6:
		t = seq("LD (HL),"+r8Names[z], opNop, opStoreHLReg)
	default:
		t = seq("LD "+r8Names[y]+","+r8Names[z], opLoadRegReg)
	}
	t.dst, t.src = y, z
	return t
}

func decodeX3(opcode, y, z, p, q uint8) template {
	var t template
	switch z {
	case 0:
		switch y {
		case 4:
			t = seq("LDH (a8),A", opNop, opReadImm, opWriteHigh)
		case 5:
			t = seq("ADD SP,r8", opNop, opReadImm, opNop, opAddSP)
		case 6:
			t = seq("LDH A,(a8)", opNop, opReadImm, opReadHigh)
		case 7:
			t = seq("LD HL,SP+r8", opNop, opReadImm, opLoadHLSP)
		default:
			t = seq("RET "+ccNames[y], opNop, opCond, opPopByte, opPopByte, opSetPC)
			t.cc = y
		}
	case 1:
		switch {
		case q == 0:
			t = seq("POP "+r2Names[p], opNop, opPopByte, opPopPair)
			t.rp = p
		case p == 0:
			t = seq("RET", opNop, opPopByte, opPopByte, opSetPC)
		case p == 1:
			t = seq("RETI", opNop, opPopByte, opPopByte, opSetPCEnable)
		case p == 2:
			t = seq("JP HL", opJumpHL)
		default:
			t = seq("LD SP,HL", opNop, opLoadSPHL)
		}
	case 2:
		switch y {
		case 4:
			t = seq("LD (C),A", opNop, opWriteCA)
		case 5:
			t = seq("LD (a16),A", opNop, opReadImm, opReadImm, opWriteAbsA)
		case 6:
			t = seq("LD A,(C)", opNop, opReadCA)
		case 7:
			t = seq("LD A,(a16)", opNop, opReadImm, opReadImm, opReadAbsA)
		default:
			t = seq("JP "+ccNames[y]+",a16", opNop, opReadImm, opReadImmCond, opSetPC)
			t.cc = y
		}
	case 3:
		switch y {
		case 0:
			t = seq("JP a16", opNop, opReadImm, opReadImm, opSetPC)
		case 1:
			// Never executed; the fetch step reads the second byte and uses
			// cbTable instead.
			t = seq("PREFIX CB", opNop)
		case 6:
			t = seq("DI", opDI)
		case 7:
			t = seq("EI", opEI)
		default:
			t = illegal(opcode)
		}
	case 4:
		if y < 4 {
			t = seq("CALL "+ccNames[y]+",a16", opNop, opReadImm, opReadImmCond, opDecSP, opPushPCHi, opPushPCLoJump)
			t.cc = y
		} else {
			t = illegal(opcode)
		}
	case 5:
		switch {
		case q == 0:
			t = seq("PUSH "+r2Names[p], opNop, opDecSP, opPushHi, opPushLo)
			t.rp = p
		case p == 0:
			t = seq("CALL a16", opNop, opReadImm, opReadImm, opDecSP, opPushPCHi, opPushPCLoJump)
		default:
			t = illegal(opcode)
		}
	case 6:
		t = seq(aluNames[y]+"d8", opNop, opALUImm)
		t.op = y
	case 7:
		t = seq(fmt.Sprintf("RST %02XH", y*8), opNop, opDecSP, opPushPCHi, opPushPCLoVec)
		t.vec = uint16(y) * 8
	}
	return t
}

func illegal(opcode uint8) template {
	return seq(fmt.Sprintf("ILLEGAL %02X", opcode), opIllegal)
}

// decodeCB decodes the second byte of a 0xCB prefixed instruction. The
// prefix byte is consumed in the fetch cycle together with this byte, so
// the first micro-op of each sequence only accounts for the second read.
func decodeCB(opcode uint8) template {
	x, y, z := opcode>>6, (opcode>>3)&7, opcode&7

	var t template
	switch x {
	case 0:
		name := rotNames[y] + " " + r8Names[z]
		if z == 6 {
			t = seq(name, opNop, opNop, opReadHL, opRotateWriteHL)
		} else {
			t = seq(name, opNop, opRotateReg)
		}
		t.op = y
	case 1:
		name := fmt.Sprintf("BIT %d,%s", y, r8Names[z])
		if z == 6 {
			t = seq(name, opNop, opNop, opBitHL)
		} else {
			t = seq(name, opNop, opBitReg)
		}
	case 2:
		name := fmt.Sprintf("RES %d,%s", y, r8Names[z])
		if z == 6 {
			t = seq(name, opNop, opNop, opReadHL, opResWriteHL)
		} else {
			t = seq(name, opNop, opResReg)
		}
	case 3:
		name := fmt.Sprintf("SET %d,%s", y, r8Names[z])
		if z == 6 {
			t = seq(name, opNop, opNop, opReadHL, opSetWriteHL)
		} else {
			t = seq(name, opNop, opSetReg)
		}
	}
	t.dst = z
	t.bit = y
	return t
}
