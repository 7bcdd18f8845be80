package cpu

// ALU operation indices, bits 3-5 of the 0x80-0xBF and 0xC6-0xFE opcodes.
const (
	aluADD uint8 = iota
	aluADC
	aluSUB
	aluSBC
	aluAND
	aluXOR
	aluOR
	aluCP
)

// Rotate and shift indices, bits 3-5 of the CB 0x00-0x3F opcodes.
const (
	rotRLC uint8 = iota
	rotRRC
	rotRL
	rotRR
	rotSLA
	rotSRA
	rotSWAP
	rotSRL
)

// Accumulator operation indices, bits 3-5 of the x=0 z=7 opcodes.
const (
	accRLCA uint8 = iota
	accRRCA
	accRLA
	accRRA
	accDAA
	accCPL
	accSCF
	accCCF
)

// alu applies one of the eight ALU operations to A.
func (c *CPU) alu(op, value uint8) {
	r := c.Registers
	switch op {
	case aluADD:
		r.A = c.add8(r.A, value, 0)
	case aluADC:
		r.A = c.add8(r.A, value, r.carry())
	case aluSUB:
		r.A = c.sub8(r.A, value, 0)
	case aluSBC:
		r.A = c.sub8(r.A, value, r.carry())
	case aluAND:
		r.A &= value
		r.setFlags(r.A == 0, false, true, false)
	case aluXOR:
		r.A ^= value
		r.setFlags(r.A == 0, false, false, false)
	case aluOR:
		r.A |= value
		r.setFlags(r.A == 0, false, false, false)
	case aluCP:
		c.sub8(r.A, value, 0)
	}
}

// add8 performs 8-bit addition with a carry input and sets flags.
func (c *CPU) add8(a, b, carry uint8) uint8 {
	result := a + b + carry
	c.Registers.setFlags(
		result == 0,
		false,
		(a&0x0F)+(b&0x0F)+carry > 0x0F,
		uint16(a)+uint16(b)+uint16(carry) > 0xFF,
	)
	return result
}

// sub8 performs 8-bit subtraction with a borrow input and sets flags.
func (c *CPU) sub8(a, b, carry uint8) uint8 {
	result := a - b - carry
	c.Registers.setFlags(
		result == 0,
		true,
		(a&0x0F) < (b&0x0F)+carry,
		uint16(a) < uint16(b)+uint16(carry),
	)
	return result
}

// add16 performs ADD HL,rr. Z is not affected.
func (c *CPU) add16(a, b uint16) uint16 {
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (a&0x0FFF)+(b&0x0FFF) > 0x0FFF)
	c.Registers.SetFlagTo(FlagC, uint32(a)+uint32(b) > 0xFFFF)
	return a + b
}

// addSPOffset computes SP plus a signed byte as ADD SP,e and LD HL,SP+e do.
// Flags come from the unsigned addition of the low bytes.
func (c *CPU) addSPOffset(e uint8) uint16 {
	sp := c.Registers.SP
	c.Registers.setFlags(
		false,
		false,
		(sp&0x0F)+uint16(e&0x0F) > 0x0F,
		(sp&0xFF)+uint16(e) > 0xFF,
	)
	return sp + uint16(int8(e)) //nolint:gosec // G115: sign extension of the offset
}

// inc8 increments an 8-bit value. Carry is not affected.
func (c *CPU) inc8(value uint8) uint8 {
	result := value + 1
	c.Registers.SetFlagTo(FlagZ, result == 0)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (value&0x0F)+1 > 0x0F)
	return result
}

// dec8 decrements an 8-bit value. Carry is not affected.
func (c *CPU) dec8(value uint8) uint8 {
	result := value - 1
	c.Registers.SetFlagTo(FlagZ, result == 0)
	c.Registers.SetFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (value&0x0F) == 0)
	return result
}

// rotate applies a CB rotate or shift and sets Z from the result.
func (c *CPU) rotate(op, value uint8) uint8 {
	var result, out uint8
	switch op {
	case rotRLC:
		out = value >> 7
		result = value<<1 | out
	case rotRRC:
		out = value & 1
		result = value>>1 | out<<7
	case rotRL:
		out = value >> 7
		result = value<<1 | c.Registers.carry()
	case rotRR:
		out = value & 1
		result = value>>1 | c.Registers.carry()<<7
	case rotSLA:
		out = value >> 7
		result = value << 1
	case rotSRA:
		out = value & 1
		result = value>>1 | value&0x80
	case rotSWAP:
		result = value<<4 | value>>4
	case rotSRL:
		out = value & 1
		result = value >> 1
	}
	c.Registers.setFlags(result == 0, false, false, out == 1)
	return result
}

// accumulate runs one of the single-byte accumulator and flag opcodes.
func (c *CPU) accumulate(op uint8) {
	r := c.Registers
	switch op {
	case accRLCA, accRRCA, accRLA, accRRA:
		// Same as the CB forms except that Z is always cleared.
		r.A = c.rotate(op, r.A)
		r.ClearFlag(FlagZ)
	case accDAA:
		c.daa()
	case accCPL:
		r.A = ^r.A
		r.SetFlag(FlagN | FlagH)
	case accSCF:
		r.ClearFlag(FlagN | FlagH)
		r.SetFlag(FlagC)
	case accCCF:
		r.ClearFlag(FlagN | FlagH)
		r.SetFlagTo(FlagC, !r.CarryFlag())
	}
}

// daa adjusts A to packed BCD after an addition or subtraction.
func (c *CPU) daa() {
	r := c.Registers
	a := r.A
	carry := r.CarryFlag()

	if !r.SubtractFlag() {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if r.HalfCarryFlag() || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if r.HalfCarryFlag() {
			a -= 0x06
		}
	}

	r.A = a
	r.SetFlagTo(FlagZ, a == 0)
	r.ClearFlag(FlagH)
	r.SetFlagTo(FlagC, carry)
}

// bit tests bit n of value. Carry is not affected.
func (c *CPU) bit(n, value uint8) {
	c.Registers.SetFlagTo(FlagZ, value&(1<<n) == 0)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlag(FlagH)
}
