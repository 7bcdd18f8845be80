package main

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/richardwooding/mcycle/internal/emulator"
	"github.com/richardwooding/mcycle/internal/input"
	"github.com/richardwooding/mcycle/internal/ppu"
)

// Display implements the Ebiten game interface for the Game Boy emulator.
type Display struct {
	emulator *emulator.Emulator
	screen   *ebiten.Image
	pixels   []byte // Pre-allocated pixel buffer to avoid GC pressure
	keys     map[ebiten.Key]input.Button
}

// NewDisplay creates a new display for the emulator.
func NewDisplay(emu *emulator.Emulator, keys map[ebiten.Key]input.Button) *Display {
	return &Display{
		emulator: emu,
		screen:   ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight),
		pixels:   make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*4), // RGBA format
		keys:     keys,
	}
}

// Update runs the emulator for one frame. Ebiten calls it 60 times per
// second, close to the DMG's 59.73 Hz.
func (d *Display) Update() error {
	d.handleInput()
	d.emulator.RunFrame()
	return nil
}

// handleInput processes keyboard input and updates joypad state.
func (d *Display) handleInput() {
	for key, button := range d.keys {
		d.emulator.SetButton(button, ebiten.IsKeyPressed(key))
	}
}

// Draw draws the game screen.
func (d *Display) Draw(screen *ebiten.Image) {
	toRGBA(d.pixels, d.emulator.Framebuffer())
	d.screen.WritePixels(d.pixels)
	screen.DrawImage(d.screen, nil)
}

// Layout returns the game screen size.
func (d *Display) Layout(_, _ int) (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}

// toRGBA converts 0xAARRGGBB pixels into RGBA bytes.
func toRGBA(dst []byte, fb *ppu.Framebuffer) {
	for i, px := range fb {
		offset := i * 4
		dst[offset] = byte(px >> 16)
		dst[offset+1] = byte(px >> 8)
		dst[offset+2] = byte(px)
		dst[offset+3] = byte(px >> 24)
	}
}
