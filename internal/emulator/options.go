package emulator

import "io"

// Option configures an Emulator.
type Option func(*config)

// defaultSaveDir is where battery saves live unless WithSaveDir says otherwise.
const defaultSaveDir = "."

type config struct {
	saveDir string
	bootROM []byte
	serial  io.Writer
	trace   io.Writer
	palette *[4]uint32
}

// WithSaveDir sets the directory battery saves are read from and written
// to. The default is the current directory; an empty dir turns persistence
// off.
func WithSaveDir(dir string) Option {
	return func(c *config) {
		c.saveDir = dir
	}
}

// WithBootROM runs the given 256 byte boot ROM before the cartridge instead
// of starting from the post-boot state.
func WithBootROM(rom []byte) Option {
	return func(c *config) {
		c.bootROM = rom
	}
}

// WithSerialWriter receives every byte sent through the serial port.
func WithSerialWriter(w io.Writer) Option {
	return func(c *config) {
		c.serial = w
	}
}

// WithTrace writes one line per executed instruction to w.
func WithTrace(w io.Writer) Option {
	return func(c *config) {
		c.trace = w
	}
}

// WithPalette replaces the four shades used in the framebuffer, lightest
// first, as 0xAARRGGBB.
func WithPalette(shades [4]uint32) Option {
	return func(c *config) {
		c.palette = &shades
	}
}
