// Package memory implements the Game Boy memory bus and address space mapping.
package memory

import (
	"io"

	"github.com/richardwooding/mcycle/internal/cartridge"
	"github.com/richardwooding/mcycle/internal/interrupt"
	"github.com/richardwooding/mcycle/internal/log"
)

// PPU is the part of the picture processing unit visible on the bus.
type PPU interface {
	ReadVRAM(addr uint16) uint8
	WriteVRAM(addr uint16, value uint8)
	ReadOAM(addr uint16) uint8
	WriteOAM(addr uint16, value uint8)
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}

// Joypad is the P1/JOYP register.
type Joypad interface {
	Read() uint8
	Write(value uint8)
}

// Timer is the DIV/TIMA/TMA/TAC register block.
type Timer interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// I/O register addresses handled by the bus itself.
const (
	AddrJOYP    = 0xFF00
	AddrSB      = 0xFF01
	AddrSC      = 0xFF02
	AddrDIV     = 0xFF04
	AddrTAC     = 0xFF07
	AddrIF      = 0xFF0F
	AddrLCDC    = 0xFF40
	AddrDMA     = 0xFF46
	AddrWX      = 0xFF4B
	AddrBootOff = 0xFF50
	AddrIE      = 0xFFFF
)

const (
	// BootROMSize is the size of the DMG boot ROM.
	BootROMSize = 0x100

	wramSize = 0x2000
	hramSize = 0x7F

	dmaLength = 0xA0
	// dmaMaxSource is the highest page an OAM DMA may copy from.
	dmaMaxSource = 0xF1

	scStart    = 0x80
	scInternal = 0x01
)

// Bus represents the Game Boy memory bus.
type Bus struct {
	cartridge  cartridge.Cartridge
	ppu        PPU
	joypad     Joypad
	timer      Timer
	interrupts *interrupt.Controller

	// Work RAM (8 KiB): C000-DFFF, echoed at E000-FDFF
	wram [wramSize]uint8

	// High RAM (127 bytes): FF80-FFFE
	hram [hramSize]uint8

	// Boot ROM overlay of 0000-00FF, active until FF50 is written
	bootROM     []byte
	bootEnabled bool

	// Serial port without a link partner
	sb     uint8
	sc     uint8
	serial io.Writer
}

// NewBus creates a bus wired to the given components. The cartridge is
// attached later with SetCartridge.
func NewBus(ppu PPU, joypad Joypad, timer Timer, interrupts *interrupt.Controller) *Bus {
	return &Bus{
		ppu:        ppu,
		joypad:     joypad,
		timer:      timer,
		interrupts: interrupts,
	}
}

// SetCartridge sets the cartridge for the memory bus. A nil cartridge makes
// the cartridge regions read 0xFF.
func (b *Bus) SetCartridge(cart cartridge.Cartridge) {
	b.cartridge = cart
}

// Cartridge returns the currently loaded cartridge.
func (b *Bus) Cartridge() cartridge.Cartridge {
	return b.cartridge
}

// Interrupts returns the interrupt controller shared with the CPU.
func (b *Bus) Interrupts() *interrupt.Controller {
	return b.interrupts
}

// SetBootROM installs a boot ROM overlay. An image of the wrong size is
// rejected and the overlay stays disabled.
func (b *Bus) SetBootROM(rom []byte) bool {
	if len(rom) != BootROMSize {
		log.ModMem.WithField("size", len(rom)).Warnf("ignoring boot ROM of unexpected size")
		b.bootROM = nil
		b.bootEnabled = false
		return false
	}
	b.bootROM = rom
	b.bootEnabled = true
	return true
}

// BootROMActive reports whether the boot ROM overlays the cartridge.
func (b *Bus) BootROMActive() bool {
	return b.bootEnabled
}

// SetSerialWriter sets where bytes shifted out of the serial port go.
func (b *Bus) SetSerialWriter(w io.Writer) {
	b.serial = w
}

// Reset clears work RAM, high RAM and the serial port. The cartridge and
// its RAM are kept, and the boot ROM overlay is re-armed if one is loaded.
func (b *Bus) Reset() {
	clear(b.wram[:])
	clear(b.hram[:])
	b.sb = 0
	b.sc = 0
	b.bootEnabled = b.bootROM != nil
}

// Read reads a byte from the memory bus.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	// ROM banks, with the boot ROM over the first 256 bytes
	case addr < 0x8000:
		if b.bootEnabled && addr < BootROMSize {
			return b.bootROM[addr]
		}
		return b.readCartridge(addr)

	case addr < 0xA000:
		return b.ppu.ReadVRAM(addr)

	// External RAM
	case addr < 0xC000:
		return b.readCartridge(addr)

	case addr < 0xE000:
		return b.wram[addr-0xC000]

	// Echo RAM: mirror of C000-DDFF
	case addr < 0xFE00:
		return b.wram[addr-0xE000]

	case addr < 0xFEA0:
		return b.ppu.ReadOAM(addr)

	// Not usable
	case addr < 0xFF00:
		return 0xFF

	case addr < 0xFF80:
		return b.readIO(addr)

	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]

	default:
		return b.interrupts.IE
	}
}

// Write writes a byte to the memory bus.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	// Bank controller registers
	case addr < 0x8000:
		b.writeCartridge(addr, value)

	case addr < 0xA000:
		b.ppu.WriteVRAM(addr, value)

	// External RAM
	case addr < 0xC000:
		b.writeCartridge(addr, value)

	case addr < 0xE000:
		b.wram[addr-0xC000] = value

	// Echo RAM
	case addr < 0xFE00:
		b.wram[addr-0xE000] = value

	case addr < 0xFEA0:
		b.ppu.WriteOAM(addr, value)

	// Not usable: writes are ignored
	case addr < 0xFF00:

	case addr < 0xFF80:
		b.writeIO(addr, value)

	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = value

	default:
		b.interrupts.IE = value
	}
}

// Read16 reads a little-endian word. It is a convenience for tools and
// tests; the CPU always accesses the bus one byte per M-cycle.
func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read(addr)) | uint16(b.Read(addr+1))<<8
}

func (b *Bus) readCartridge(addr uint16) uint8 {
	if b.cartridge == nil {
		return 0xFF
	}
	return b.cartridge.Read(addr)
}

func (b *Bus) writeCartridge(addr uint16, value uint8) {
	if b.cartridge != nil {
		b.cartridge.Write(addr, value)
	}
}

// readIO reads from I/O registers. Registers with no device behind them
// read 0xFF.
func (b *Bus) readIO(addr uint16) uint8 {
	switch {
	case addr == AddrJOYP:
		return b.joypad.Read()
	case addr == AddrSB:
		return b.sb
	case addr == AddrSC:
		return b.sc | 0x7E
	case addr >= AddrDIV && addr <= AddrTAC:
		return b.timer.Read(addr)
	case addr == AddrIF:
		return b.interrupts.ReadIF()
	case addr >= AddrLCDC && addr <= AddrWX:
		return b.ppu.ReadRegister(addr)
	default:
		return 0xFF
	}
}

// writeIO writes to I/O registers.
func (b *Bus) writeIO(addr uint16, value uint8) {
	switch {
	case addr == AddrJOYP:
		b.joypad.Write(value)
	case addr == AddrSB:
		b.sb = value
	case addr == AddrSC:
		b.writeSC(value)
	case addr >= AddrDIV && addr <= AddrTAC:
		b.timer.Write(addr, value)
	case addr == AddrIF:
		b.interrupts.WriteIF(value)
	case addr == AddrDMA:
		b.ppu.WriteRegister(addr, value)
		b.dma(value)
	case addr >= AddrLCDC && addr <= AddrWX:
		b.ppu.WriteRegister(addr, value)
	case addr == AddrBootOff:
		if value&1 != 0 && b.bootEnabled {
			b.bootEnabled = false
			log.ModMem.Debugf("boot ROM disabled")
		}
	}
}

// dma copies 160 bytes from page v into OAM in one step.
func (b *Bus) dma(v uint8) {
	if v > dmaMaxSource {
		log.ModMem.WithField("source", v).Errorf("OAM DMA from restricted page ignored")
		return
	}
	src := uint16(v) << 8
	for i := uint16(0); i < dmaLength; i++ {
		b.ppu.WriteOAM(0xFE00+i, b.Read(src+i))
	}
}

// writeSC handles the serial control register. With no link partner an
// internally clocked transfer completes at once: the outgoing byte is
// reported to the serial writer and 0xFF is shifted in.
func (b *Bus) writeSC(value uint8) {
	b.sc = value & (scStart | scInternal)
	if value&(scStart|scInternal) != scStart|scInternal {
		return
	}
	if b.serial != nil {
		if _, err := b.serial.Write([]byte{b.sb}); err != nil {
			log.ModMem.WithField("err", err).Warnf("serial output failed")
		}
	}
	b.sb = 0xFF
	b.sc &^= scStart
	b.interrupts.Request(interrupt.Serial)
}
