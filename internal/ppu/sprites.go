package ppu

const (
	maxSprites = 10
	numOAM     = 40

	// spritePenalty is the number of dots the pipeline stalls per sprite.
	spritePenalty = 6
)

// sprite is an OAM entry selected for the current line.
type sprite struct {
	y, x, tile, attr uint8
	merged           bool
}

func (p *PPU) spriteHeight() int {
	if p.lcdc&LCDCOBJSize != 0 {
		return 16
	}
	return 8
}

// scanOAM selects up to ten sprites that cover the current line, in OAM
// order, then orders them by X so that lower X wins and ties go to the
// lower OAM index.
func (p *PPU) scanOAM() {
	p.numSprites = 0
	height := p.spriteHeight()
	for i := 0; i < numOAM && p.numSprites < maxSprites; i++ {
		e := p.oam[i*4 : i*4+4]
		top := int(e[0]) - 16
		if int(p.ly) < top || int(p.ly) >= top+height {
			continue
		}
		p.sprites[p.numSprites] = sprite{y: e[0], x: e[1], tile: e[2], attr: e[3]}
		p.numSprites++
	}

	for i := 1; i < p.numSprites; i++ {
		for j := i; j > 0 && p.sprites[j].x < p.sprites[j-1].x; j-- {
			p.sprites[j], p.sprites[j-1] = p.sprites[j-1], p.sprites[j]
		}
	}
}

// mergeDueSprites merges every sprite that starts at the current x into the
// FIFO. It reports whether the pipeline stalls for this dot.
func (p *PPU) mergeDueSprites() bool {
	if p.lcdc&LCDCOBJEnable == 0 {
		return false
	}
	stalled := false
	for i := 0; i < p.numSprites; i++ {
		s := &p.sprites[i]
		if s.merged || int(s.x)-8 > p.x {
			continue
		}
		s.merged = true
		if s.x == 0 {
			continue
		}
		p.mergeSprite(s)
		p.stall += spritePenalty
		stalled = true
	}
	return stalled
}

func (p *PPU) mergeSprite(s *sprite) {
	height := p.spriteHeight()
	row := int(p.ly) - (int(s.y) - 16)
	if s.attr&SpriteAttrYFlip != 0 {
		row = height - 1 - row
	}
	tile := s.tile
	if height == 16 {
		tile &= 0xFE
	}
	addr := uint16(tile)*16 + uint16(row)*2
	lo, hi := p.vram[addr], p.vram[addr+1]

	var palette uint8
	if s.attr&SpriteAttrPalette != 0 {
		palette = 1
	}

	for c := 0; c < 8; c++ {
		i := int(s.x) - 8 + c - p.x
		if i < 0 || i >= 8 {
			continue
		}
		bit := 7 - c
		if s.attr&SpriteAttrXFlip != 0 {
			bit = c
		}
		color := (hi>>bit&1)<<1 | lo>>bit&1
		if color == 0 {
			continue
		}
		px := p.fifo.At(i)
		if px.obj != 0 {
			continue
		}
		px.obj = color
		px.palette = palette
		px.behind = s.attr&SpriteAttrPriority != 0
	}
}
