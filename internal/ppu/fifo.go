package ppu

const fifoSize = 16

// pixel is one FIFO entry: a background colour index plus the sprite pixel
// merged on top of it, if any.
type pixel struct {
	color   uint8
	obj     uint8 // sprite colour index, 0 when no sprite covers the pixel
	palette uint8 // 0 for OBP0, 1 for OBP1
	behind  bool  // sprite hidden behind background colours 1-3
}

// fifo is a fixed ring buffer of pixels.
type fifo struct {
	buf  [fifoSize]pixel
	head int
	n    int
}

func (f *fifo) Len() int { return f.n }

func (f *fifo) Clear() {
	f.head = 0
	f.n = 0
}

func (f *fifo) Push(px pixel) {
	f.buf[(f.head+f.n)%fifoSize] = px
	f.n++
}

func (f *fifo) Pop() pixel {
	px := f.buf[f.head]
	f.head = (f.head + 1) % fifoSize
	f.n--
	return px
}

// At returns the i-th queued pixel, 0 being the next one shifted out.
func (f *fifo) At(i int) *pixel {
	return &f.buf[(f.head+i)%fifoSize]
}
