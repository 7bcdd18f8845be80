// Package emulator ties the CPU, bus, PPU, timer, joypad and cartridge
// together and clocks them one M-cycle at a time.
package emulator

import (
	"errors"
	"fmt"

	"github.com/richardwooding/mcycle/internal/cartridge"
	"github.com/richardwooding/mcycle/internal/cpu"
	"github.com/richardwooding/mcycle/internal/input"
	"github.com/richardwooding/mcycle/internal/interrupt"
	"github.com/richardwooding/mcycle/internal/log"
	"github.com/richardwooding/mcycle/internal/memory"
	"github.com/richardwooding/mcycle/internal/ppu"
	"github.com/richardwooding/mcycle/internal/timer"
)

var (
	// ErrROMLoadFailed indicates InsertROM rejected the image.
	ErrROMLoadFailed = errors.New("ROM loading failed")

	// ErrNoCartridge indicates an operation that needs a cartridge.
	ErrNoCartridge = errors.New("no cartridge inserted")
)

// MCyclesPerFrame is the number of M-cycles between two frames.
const MCyclesPerFrame = ppu.DotsPerFrame / ppu.DotsPerMCycle

// Values the boot ROM leaves in the I/O registers.
const (
	postBootSystemCounter = 0xABCC
	postBootIF            = 0x01
	postBootJOYP          = 0x00
	postBootTAC           = 0x00
	postBootLCDC          = 0x91
	postBootBGP           = 0xFC
	postBootOBP           = 0xFF
)

// Emulator represents a Game Boy emulator instance.
type Emulator struct {
	cpu        *cpu.CPU
	bus        *memory.Bus
	ppu        *ppu.PPU
	timer      *timer.Timer
	joypad     *input.Joypad
	interrupts *interrupt.Controller

	cart   cartridge.Cartridge
	ticker cartridge.Ticker

	cfg config
}

// New creates an emulator with no cartridge inserted.
func New(opts ...Option) *Emulator {
	e := &Emulator{cfg: config{saveDir: defaultSaveDir}}
	for _, opt := range opts {
		opt(&e.cfg)
	}

	e.interrupts = interrupt.New()
	e.ppu = ppu.New(e.interrupts.Request)
	e.timer = timer.New(e.interrupts.Request)
	e.joypad = input.New(e.interrupts.Request)
	e.bus = memory.NewBus(e.ppu, e.joypad, e.timer, e.interrupts)
	e.cpu = cpu.New()

	if e.cfg.bootROM != nil {
		e.bus.SetBootROM(e.cfg.bootROM)
	}
	e.bus.SetSerialWriter(e.cfg.serial)
	e.cpu.SetTrace(e.cfg.trace)

	e.reset()
	return e
}

// InsertROM replaces the cartridge and resets the machine. On error the
// emulator is left exactly as it was.
func (e *Emulator) InsertROM(rom []byte) error {
	cart, err := cartridge.New(rom)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrROMLoadFailed, err)
	}

	if err := e.saveBattery(); err != nil {
		log.ModEmu.Warnf("previous cartridge: %v", err)
	}

	if e.cfg.saveDir != "" {
		cartridge.LoadBattery(cart, e.cfg.saveDir)
	}

	e.cart = cart
	e.ticker, _ = cart.(cartridge.Ticker)
	e.bus.SetCartridge(cart)
	e.reset()

	h := cart.Header()
	log.ModEmu.WithFields(log.Fields{
		"title": h.Title(),
		"type":  h.CartridgeType.String(),
		"rom":   h.ROMSizeBytes(),
		"ram":   h.RAMSizeBytes(),
	}).Infof("cartridge inserted")
	return nil
}

// reset puts every component in its power-on state, then either arms the
// boot ROM or applies the state the boot ROM would leave.
func (e *Emulator) reset() {
	e.interrupts.Reset()
	e.ppu.Reset()
	if e.cfg.palette != nil {
		e.ppu.SetPalette(*e.cfg.palette)
	}
	e.timer.Reset()
	e.joypad.Reset()
	e.bus.Reset()

	if e.bus.BootROMActive() {
		e.cpu.ResetForBootROM()
		return
	}
	e.cpu.Reset()
	e.applyPostBoot()
}

func (e *Emulator) applyPostBoot() {
	e.timer.SetSystemCounter(postBootSystemCounter)
	e.interrupts.WriteIF(postBootIF)
	e.bus.Write(memory.AddrJOYP, postBootJOYP)
	e.bus.Write(memory.AddrTAC, postBootTAC)
	e.bus.Write(ppu.BGP, postBootBGP)
	e.bus.Write(ppu.OBP0, postBootOBP)
	e.bus.Write(ppu.OBP1, postBootOBP)
	e.bus.Write(ppu.LCDC, postBootLCDC)
}

// TickMCycle advances the whole machine by one M-cycle: CPU, then PPU, then
// timer, then any clocked cartridge hardware.
func (e *Emulator) TickMCycle() {
	e.cpu.Tick(e.bus)
	e.ppu.Tick()
	e.timer.Tick()
	if e.ticker != nil {
		e.ticker.Tick()
	}
}

// FrameReady reports whether a new frame has completed since the last call.
func (e *Emulator) FrameReady() bool {
	return e.ppu.FrameReady()
}

// Framebuffer returns the most recently completed frame as 160x144
// 0xAARRGGBB pixels. It stays unchanged until FrameReady next reports true.
func (e *Emulator) Framebuffer() *ppu.Framebuffer {
	return e.ppu.Framebuffer()
}

// SetButton presses or releases a joypad button.
func (e *Emulator) SetButton(b input.Button, pressed bool) {
	e.joypad.SetButton(b, pressed)
}

// RunFrame ticks until the next frame completes.
func (e *Emulator) RunFrame() {
	// The PPU signals a frame every MCyclesPerFrame cycles even with the LCD
	// off, so the bound only matters if that ever breaks.
	for i := 0; i < 2*MCyclesPerFrame; i++ {
		e.TickMCycle()
		if e.FrameReady() {
			return
		}
	}
	log.ModEmu.Warnf("no frame completed within two frame periods")
}

// Close writes battery RAM back to disk.
func (e *Emulator) Close() error {
	return e.saveBattery()
}

func (e *Emulator) saveBattery() error {
	if e.cart == nil || e.cfg.saveDir == "" {
		return nil
	}
	return cartridge.SaveBattery(e.cart, e.cfg.saveDir)
}

// Header returns the header of the inserted cartridge.
func (e *Emulator) Header() (*cartridge.Header, error) {
	if e.cart == nil {
		return nil, ErrNoCartridge
	}
	return e.cart.Header(), nil
}

// Cycles returns the number of M-cycles since the last reset.
func (e *Emulator) Cycles() uint64 {
	return e.cpu.Cycles
}

// CPU returns the processor, for tests and tracing.
func (e *Emulator) CPU() *cpu.CPU {
	return e.cpu
}

// Bus returns the memory bus, for tests and tools.
func (e *Emulator) Bus() *memory.Bus {
	return e.bus
}

// Cartridge returns the inserted cartridge, or nil.
func (e *Emulator) Cartridge() cartridge.Cartridge {
	return e.cart
}
