package ppu

type fetchStep uint8

const (
	fetchTile fetchStep = iota
	fetchLow
	fetchHigh
	fetchPush
)

// dotsPerFetchStep is the length of each of the three read steps.
const dotsPerFetchStep = 2

// fetcher reads background or window tiles into the FIFO, one 8 pixel row
// per round.
type fetcher struct {
	step   fetchStep
	dots   int
	tileX  uint8
	tile   uint8
	lo, hi uint8
	window bool
}

// startTransfer prepares the pipeline for mode 3 of the current line.
func (p *PPU) startTransfer() {
	p.mode = ModeTransfer
	p.fifo.Clear()
	p.fetch = fetcher{}
	p.x = 0
	p.discard = int(p.scx & 7)
	p.stall = 0
}

// transferDot runs the pixel pipeline for one dot.
func (p *PPU) transferDot() {
	if p.stall > 0 {
		p.stall--
		return
	}

	p.fetcherDot()

	// Pixels only leave the FIFO while it holds more than one tile row, so
	// a sprite row can always be merged over the next eight pixels.
	if p.fifo.Len() <= 8 {
		return
	}

	if !p.fetch.window && p.windowTriggered() {
		p.startWindow()
		return
	}

	if p.discard > 0 {
		p.fifo.Pop()
		p.discard--
		return
	}

	if p.mergeDueSprites() {
		return
	}

	px := p.fifo.Pop()
	p.back()[int(p.ly)*ScreenWidth+p.x] = p.shade(px)
	p.x++
	if p.x == ScreenWidth {
		p.setMode(ModeHBlank)
	}
}

func (p *PPU) fetcherDot() {
	f := &p.fetch
	if f.step == fetchPush {
		if p.fifo.Len() > 8 {
			return
		}
		for b := 7; b >= 0; b-- {
			color := (f.hi>>b&1)<<1 | f.lo>>b&1
			p.fifo.Push(pixel{color: color})
		}
		f.tileX++
		f.step = fetchTile
		return
	}

	f.dots++
	if f.dots < dotsPerFetchStep {
		return
	}
	f.dots = 0

	switch f.step {
	case fetchTile:
		f.tile = p.vram[p.tileMapOffset()]
	case fetchLow:
		f.lo = p.vram[p.tileDataOffset()]
	case fetchHigh:
		f.hi = p.vram[p.tileDataOffset()+1]
	}
	f.step++
}

// tileMapOffset returns the VRAM offset of the tile number being fetched.
func (p *PPU) tileMapOffset() uint16 {
	var base uint16
	var row, col uint16
	if p.fetch.window {
		base = 0x1800
		if p.lcdc&LCDCWindowTileMap != 0 {
			base = 0x1C00
		}
		row = uint16(p.windowLine / 8)
		col = uint16(p.fetch.tileX)
	} else {
		base = 0x1800
		if p.lcdc&LCDCBGTileMap != 0 {
			base = 0x1C00
		}
		row = uint16(p.ly+p.scy) / 8
		col = uint16(p.scx/8 + p.fetch.tileX)
	}
	return base + (row&31)*32 + col&31
}

// tileDataOffset returns the VRAM offset of the low byte of the current
// row of the fetched tile.
func (p *PPU) tileDataOffset() uint16 {
	var fine uint16
	if p.fetch.window {
		fine = uint16(p.windowLine % 8)
	} else {
		fine = uint16(p.ly+p.scy) % 8
	}
	if p.lcdc&LCDCBGTileData != 0 {
		return uint16(p.fetch.tile)*16 + fine*2
	}
	return uint16(0x1000+int(int8(p.fetch.tile))*16) + fine*2
}

func (p *PPU) windowTriggered() bool {
	if p.lcdc&LCDCWindowEnable == 0 || p.wy > p.ly || p.wx > 166 {
		return false
	}
	return p.x+7 >= int(p.wx)
}

// startWindow flushes the FIFO and restarts the fetcher on the window map.
// With WX below 7 the window starts left of the screen, so its first 7-WX
// pixels are dropped.
func (p *PPU) startWindow() {
	p.fifo.Clear()
	p.fetch = fetcher{window: true}
	p.discard = 0
	if p.wx < 7 {
		p.discard = 7 - int(p.wx)
	}
	p.windowDrawn = true
}

// shade converts a FIFO entry into a framebuffer colour.
func (p *PPU) shade(px pixel) uint32 {
	bgOn := p.lcdc&LCDCBGWindowEnable != 0
	bg := px.color
	if !bgOn {
		bg = 0
	}

	if px.obj != 0 && p.lcdc&LCDCOBJEnable != 0 && !(px.behind && bg != 0) {
		pal := p.obp0
		if px.palette != 0 {
			pal = p.obp1
		}
		return p.palette[pal>>(px.obj*2)&3]
	}

	if !bgOn {
		return p.palette[0]
	}
	return p.palette[p.bgp>>(bg*2)&3]
}
