// Package ppu implements the Game Boy Picture Processing Unit.
//
// The PPU is clocked one dot at a time. Each scanline is 456 dots: OAM scan
// (mode 2), pixel transfer through the pixel FIFO (mode 3) and HBlank
// (mode 0) for lines 0-143, followed by ten VBlank lines (mode 1).
package ppu

import (
	"github.com/richardwooding/mcycle/internal/interrupt"
	"github.com/richardwooding/mcycle/internal/log"
)

const (
	// ScreenWidth is the Game Boy screen width in pixels.
	ScreenWidth = 160
	// ScreenHeight is the Game Boy screen height in pixels.
	ScreenHeight = 144
)

// Mode is the PPU mode as reported in STAT bits 0-1.
type Mode uint8

const (
	ModeHBlank   Mode = 0
	ModeVBlank   Mode = 1
	ModeOAMScan  Mode = 2
	ModeTransfer Mode = 3
)

var modeNames = [...]string{"HBlank", "VBlank", "OAM", "Transfer"}

func (m Mode) String() string { return modeNames[m&3] }

const (
	// DotsPerScanline is the total number of dots per scanline.
	DotsPerScanline = 456
	// DotsOAMScan is the duration of mode 2 in dots.
	DotsOAMScan = 80
	// ScanlinesVisible is the number of visible scanlines.
	ScanlinesVisible = 144
	// ScanlinesTotal is the total number of scanlines per frame.
	ScanlinesTotal = 154
	// DotsPerFrame is the total number of dots per frame.
	DotsPerFrame = DotsPerScanline * ScanlinesTotal
	// DotsPerMCycle is the number of dots in one M-cycle.
	DotsPerMCycle = 4
)

const (
	// VRAMSize is the size of VRAM in bytes.
	VRAMSize = 0x2000
	// OAMSize is the size of OAM in bytes.
	OAMSize = 0xA0

	vramBase = 0x8000
	oamBase  = 0xFE00
)

// LCDC bits.
const (
	LCDCLCDEnable      = 1 << 7
	LCDCWindowTileMap  = 1 << 6
	LCDCWindowEnable   = 1 << 5
	LCDCBGTileData     = 1 << 4
	LCDCBGTileMap      = 1 << 3
	LCDCOBJSize        = 1 << 2
	LCDCOBJEnable      = 1 << 1
	LCDCBGWindowEnable = 1 << 0
)

// STAT bits.
const (
	STATLYCInterrupt   = 1 << 6
	STATMode2Interrupt = 1 << 5
	STATMode1Interrupt = 1 << 4
	STATMode0Interrupt = 1 << 3
	STATLYCFlag        = 1 << 2
	STATModeMask       = 0x03

	statWritable = 0x78
)

// Sprite attribute bits.
const (
	SpriteAttrPriority = 1 << 7
	SpriteAttrYFlip    = 1 << 6
	SpriteAttrXFlip    = 1 << 5
	SpriteAttrPalette  = 1 << 4
)

// Register addresses.
const (
	LCDC = 0xFF40
	STAT = 0xFF41
	SCY  = 0xFF42
	SCX  = 0xFF43
	LY   = 0xFF44
	LYC  = 0xFF45
	DMA  = 0xFF46
	BGP  = 0xFF47
	OBP0 = 0xFF48
	OBP1 = 0xFF49
	WY   = 0xFF4A
	WX   = 0xFF4B
)

// Framebuffer holds one frame of 0xAARRGGBB pixels in row-major order.
type Framebuffer [ScreenWidth * ScreenHeight]uint32

// DefaultPalette maps the four DMG shades, lightest first.
var DefaultPalette = [4]uint32{0xFFFFFFFF, 0xFFAAAAAA, 0xFF555555, 0xFF000000}

// PPU is the picture processing unit.
type PPU struct {
	vram [VRAMSize]uint8
	oam  [OAMSize]uint8

	lcdc uint8
	stat uint8 // interrupt enables only; mode and LYC flag are derived
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	dma  uint8
	bgp  uint8
	obp0 uint8
	obp1 uint8
	wy   uint8
	wx   uint8

	mode       Mode
	lineDot    int
	offDot     int
	coincident bool

	// Pixel transfer state for the current line.
	fifo        fifo
	fetch       fetcher
	x           int
	discard     int
	stall       int
	sprites     [maxSprites]sprite
	numSprites  int
	windowLine  int
	windowDrawn bool

	buffers    [2]Framebuffer
	front      int
	frameReady bool
	palette    [4]uint32

	request func(interrupt.Kind)
}

// New creates a PPU with the LCD switched off.
func New(request func(interrupt.Kind)) *PPU {
	p := &PPU{request: request}
	p.Reset()
	return p
}

// Reset clears memory and registers and switches the LCD off.
func (p *PPU) Reset() {
	request := p.request
	*p = PPU{request: request, palette: DefaultPalette}
	p.fillWhite(&p.buffers[0])
	p.fillWhite(&p.buffers[1])
}

// SetPalette replaces the shade table used for new frames.
func (p *PPU) SetPalette(shades [4]uint32) {
	p.palette = shades
}

// Mode returns the current mode.
func (p *PPU) Mode() Mode { return p.mode }

// LY returns the current scanline.
func (p *PPU) LY() uint8 { return p.ly }

// LineDot returns the dot position within the current scanline.
func (p *PPU) LineDot() int { return p.lineDot }

// Enabled reports whether LCDC bit 7 is set.
func (p *PPU) Enabled() bool { return p.lcdc&LCDCLCDEnable != 0 }

// Framebuffer returns the most recently completed frame. Its contents stay
// the same until the next FrameReady signal.
func (p *PPU) Framebuffer() *Framebuffer {
	return &p.buffers[p.front]
}

// FrameReady reports whether a frame has been completed since the last call.
func (p *PPU) FrameReady() bool {
	ready := p.frameReady
	p.frameReady = false
	return ready
}

func (p *PPU) back() *Framebuffer {
	return &p.buffers[1-p.front]
}

func (p *PPU) fillWhite(fb *Framebuffer) {
	for i := range fb {
		fb[i] = p.palette[0]
	}
}

func (p *PPU) swapBuffers() {
	p.front = 1 - p.front
	p.frameReady = true
}

func (p *PPU) raise(k interrupt.Kind) {
	if p.request != nil {
		p.request(k)
	}
}

// Tick advances the PPU by one M-cycle.
func (p *PPU) Tick() {
	for i := 0; i < DotsPerMCycle; i++ {
		p.step()
	}
}

func (p *PPU) step() {
	if !p.Enabled() {
		// The frame clock keeps running so hosts still get a white frame
		// at the usual rate.
		p.offDot++
		if p.offDot == DotsPerFrame {
			p.offDot = 0
			p.fillWhite(p.back())
			p.swapBuffers()
		}
		return
	}

	switch p.mode {
	case ModeOAMScan:
		if p.lineDot == DotsOAMScan {
			p.scanOAM()
			p.startTransfer()
			p.transferDot()
		}
	case ModeTransfer:
		p.transferDot()
	}

	p.lineDot++
	if p.lineDot == DotsPerScanline {
		p.lineDot = 0
		p.nextLine()
	}
}

func (p *PPU) nextLine() {
	if p.windowDrawn {
		p.windowLine++
		p.windowDrawn = false
	}

	p.ly++
	switch {
	case p.ly == ScanlinesVisible:
		p.setMode(ModeVBlank)
	case p.ly == ScanlinesTotal:
		p.ly = 0
		p.windowLine = 0
		p.setMode(ModeOAMScan)
	case p.ly < ScanlinesVisible:
		p.setMode(ModeOAMScan)
	}
	p.checkCoincidence()
}

// setMode switches mode and raises the interrupts tied to entering it.
func (p *PPU) setMode(m Mode) {
	p.mode = m
	switch m {
	case ModeHBlank:
		if p.stat&STATMode0Interrupt != 0 {
			p.raise(interrupt.LCDStat)
		}
	case ModeVBlank:
		p.raise(interrupt.VBlank)
		if p.stat&STATMode1Interrupt != 0 {
			p.raise(interrupt.LCDStat)
		}
		p.swapBuffers()
	case ModeOAMScan:
		if p.stat&STATMode2Interrupt != 0 {
			p.raise(interrupt.LCDStat)
		}
	}
}

// checkCoincidence updates the LY=LYC flag and raises the STAT interrupt on
// its rising edge.
func (p *PPU) checkCoincidence() {
	was := p.coincident
	p.coincident = p.ly == p.lyc
	if p.coincident && !was && p.stat&STATLYCInterrupt != 0 {
		p.raise(interrupt.LCDStat)
	}
}

// ReadVRAM reads a byte at an absolute address in 0x8000-0x9FFF.
func (p *PPU) ReadVRAM(addr uint16) uint8 {
	return p.vram[(addr-vramBase)&(VRAMSize-1)]
}

// WriteVRAM writes a byte at an absolute address in 0x8000-0x9FFF.
func (p *PPU) WriteVRAM(addr uint16, value uint8) {
	p.vram[(addr-vramBase)&(VRAMSize-1)] = value
}

// ReadOAM reads a byte at an absolute address in 0xFE00-0xFE9F.
func (p *PPU) ReadOAM(addr uint16) uint8 {
	if off := addr - oamBase; off < OAMSize {
		return p.oam[off]
	}
	return 0xFF
}

// WriteOAM writes a byte at an absolute address in 0xFE00-0xFE9F.
func (p *PPU) WriteOAM(addr uint16, value uint8) {
	if off := addr - oamBase; off < OAMSize {
		p.oam[off] = value
	}
}

// ReadRegister reads a register in 0xFF40-0xFF4B.
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr {
	case LCDC:
		return p.lcdc
	case STAT:
		v := 0x80 | p.stat | uint8(p.mode)
		if p.coincident {
			v |= STATLYCFlag
		}
		return v
	case SCY:
		return p.scy
	case SCX:
		return p.scx
	case LY:
		return p.ly
	case LYC:
		return p.lyc
	case DMA:
		return p.dma
	case BGP:
		return p.bgp
	case OBP0:
		return p.obp0
	case OBP1:
		return p.obp1
	case WY:
		return p.wy
	case WX:
		return p.wx
	}
	return 0xFF
}

// WriteRegister writes a register in 0xFF40-0xFF4B. LY is read-only. A DMA
// write only records the value; the bus performs the copy.
func (p *PPU) WriteRegister(addr uint16, value uint8) {
	switch addr {
	case LCDC:
		p.writeLCDC(value)
	case STAT:
		p.stat = value & statWritable
	case SCY:
		p.scy = value
	case SCX:
		p.scx = value
	case LYC:
		p.lyc = value
		if p.Enabled() {
			p.checkCoincidence()
		}
	case DMA:
		p.dma = value
	case BGP:
		p.bgp = value
	case OBP0:
		p.obp0 = value
	case OBP1:
		p.obp1 = value
	case WY:
		p.wy = value
	case WX:
		p.wx = value
	}
}

func (p *PPU) writeLCDC(value uint8) {
	was := p.Enabled()
	p.lcdc = value
	now := p.Enabled()

	switch {
	case was && !now:
		if p.mode != ModeVBlank {
			log.ModPPU.WithField("ly", p.ly).Warnf("LCD switched off outside VBlank")
		}
		p.ly = 0
		p.lineDot = 0
		p.offDot = 0
		p.mode = ModeHBlank
		p.coincident = false
		p.windowLine = 0
		p.windowDrawn = false
		p.fillWhite(p.back())
	case !was && now:
		p.ly = 0
		p.lineDot = 0
		p.windowLine = 0
		p.mode = ModeOAMScan
		p.checkCoincidence()
	}
}
