package emulator

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/richardwooding/mcycle/internal/cartridge"
	"github.com/richardwooding/mcycle/internal/cpu"
	"github.com/richardwooding/mcycle/internal/input"
	"github.com/richardwooding/mcycle/internal/ppu"
)

// programStart is where buildROM places the program; 0x0100 jumps to it.
const programStart = 0x0150

// buildROM returns a 32 KiB image whose entry point jumps to program.
// Bytes for the interrupt vectors can be supplied through vectors.
func buildROM(t *testing.T, cartType cartridge.CartridgeType, ramSize byte, vectors map[uint16][]byte, program ...byte) []byte {
	t.Helper()
	rom := make([]byte, 0x8000)
	for addr, code := range vectors {
		copy(rom[addr:], code)
	}
	copy(rom[0x0100:], []byte{0xC3, programStart & 0xFF, programStart >> 8})
	copy(rom[0x0134:], "EMUTEST")
	rom[0x0147] = byte(cartType)
	rom[0x0149] = ramSize
	rom[0x014D] = cartridge.HeaderChecksum(rom)
	copy(rom[programStart:], program)
	return rom
}

func newWithProgram(t *testing.T, opts []Option, program ...byte) *Emulator {
	t.Helper()
	e := New(opts...)
	if err := e.InsertROM(buildROM(t, cartridge.TypeROMOnly, 0, nil, program...)); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	return e
}

func run(e *Emulator, cycles int) {
	for i := 0; i < cycles; i++ {
		e.TickMCycle()
	}
}

// loop is JR -2.
var loop = []byte{0x18, 0xFE}

func TestPostBootState(t *testing.T) {
	e := newWithProgram(t, nil, loop...)

	want := cpu.Registers{
		A: 0x01, F: 0xB0, B: 0x00, C: 0x13, D: 0x00, E: 0xD8,
		H: 0x01, L: 0x4D, SP: 0xFFFE, PC: 0x0100,
	}
	if diff := cmp.Diff(want, *e.CPU().Registers); diff != "" {
		t.Errorf("registers mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name string
		addr uint16
		want uint8
	}{
		{"JOYP", 0xFF00, 0xCF},
		{"DIV", 0xFF04, 0xAB},
		{"TIMA", 0xFF05, 0x00},
		{"TMA", 0xFF06, 0x00},
		{"TAC", 0xFF07, 0xF8},
		{"IF", 0xFF0F, 0xE1},
		{"LCDC", 0xFF40, 0x91},
		{"SCY", 0xFF42, 0x00},
		{"SCX", 0xFF43, 0x00},
		{"LY", 0xFF44, 0x00},
		{"BGP", 0xFF47, 0xFC},
		{"OBP0", 0xFF48, 0xFF},
		{"OBP1", 0xFF49, 0xFF},
		{"IE", 0xFFFF, 0x00},
		{"entry", 0x0100, 0xC3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Bus().Read(tt.addr); got != tt.want {
				t.Errorf("Read(0x%04X) = 0x%02X, want 0x%02X", tt.addr, got, tt.want)
			}
		})
	}
}

func TestInsertROMErrorKeepsState(t *testing.T) {
	e := newWithProgram(t, nil, loop...)
	run(e, 100)
	before := *e.CPU().Registers
	cycles := e.Cycles()

	err := e.InsertROM([]byte{0x00, 0x01, 0x02})
	if !errors.Is(err, ErrROMLoadFailed) {
		t.Fatalf("InsertROM() error = %v, want ErrROMLoadFailed", err)
	}
	if !errors.Is(err, cartridge.ErrInvalidROMSize) {
		t.Errorf("InsertROM() error = %v, want it to wrap ErrInvalidROMSize", err)
	}

	if diff := cmp.Diff(before, *e.CPU().Registers); diff != "" {
		t.Errorf("registers changed (-before +after):\n%s", diff)
	}
	if e.Cycles() != cycles {
		t.Errorf("Cycles() = %d, want %d", e.Cycles(), cycles)
	}
	h, err := e.Header()
	if err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	if h.Title() != "EMUTEST" {
		t.Errorf("Title() = %q, want EMUTEST", h.Title())
	}
}

func TestNoCartridge(t *testing.T) {
	e := New()
	if _, err := e.Header(); !errors.Is(err, ErrNoCartridge) {
		t.Errorf("Header() error = %v, want ErrNoCartridge", err)
	}
	if got := e.Bus().Read(0x0100); got != 0xFF {
		t.Errorf("Read(0x0100) = 0x%02X, want 0xFF", got)
	}
	run(e, 1000)
	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFramePeriod(t *testing.T) {
	e := newWithProgram(t, nil, loop...)

	// The LCD is switched on at line 0, so the first frame ends at VBlank.
	e.RunFrame()
	first := e.Cycles()
	if want := uint64(ppu.ScanlinesVisible * ppu.DotsPerScanline / ppu.DotsPerMCycle); first != want {
		t.Errorf("first frame after %d cycles, want %d", first, want)
	}

	for i := 0; i < 3; i++ {
		start := e.Cycles()
		e.RunFrame()
		if got := e.Cycles() - start; got != MCyclesPerFrame {
			t.Errorf("frame %d took %d cycles, want %d", i+1, got, MCyclesPerFrame)
		}
	}
}

func TestFrameReadyCountsTicks(t *testing.T) {
	e := newWithProgram(t, nil, loop...)
	e.RunFrame()

	ticks := 0
	for !e.FrameReady() {
		e.TickMCycle()
		ticks++
	}
	if ticks != MCyclesPerFrame {
		t.Errorf("ticks between frames = %d, want %d", ticks, MCyclesPerFrame)
	}
}

func TestProgramWritesWRAM(t *testing.T) {
	e := newWithProgram(t, nil,
		0x3E, 0x42, // LD A,0x42
		0xEA, 0x00, 0xC0, // LD (0xC000),A
		0x18, 0xFE, // JR -2
	)
	// JP a16 (4) + LD A,n (2) + LD (a16),A (4)
	run(e, 10)
	if got := e.Bus().Read(0xC000); got != 0x42 {
		t.Errorf("Read(0xC000) = 0x%02X, want 0x42", got)
	}
	if e.Cycles() != 10 {
		t.Errorf("Cycles() = %d, want 10", e.Cycles())
	}
}

func TestSerialWriter(t *testing.T) {
	var out bytes.Buffer
	send := func(c byte) []byte {
		return []byte{
			0x3E, c, // LD A,c
			0xE0, 0x01, // LDH (SB),A
			0x3E, 0x81, // LD A,0x81
			0xE0, 0x02, // LDH (SC),A
		}
	}
	var program []byte
	program = append(program, send('O')...)
	program = append(program, send('K')...)
	program = append(program, loop...)

	e := newWithProgram(t, []Option{WithSerialWriter(&out)}, program...)
	run(e, 100)
	if got := out.String(); got != "OK" {
		t.Errorf("serial output = %q, want %q", got, "OK")
	}
}

func TestBatteryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rom := buildROM(t, cartridge.TypeMBC1RAMBattery, 2, nil,
		0x3E, 0x0A, // LD A,0x0A
		0xEA, 0x00, 0x00, // LD (0x0000),A  enable RAM
		0x3E, 0x5A, // LD A,0x5A
		0xEA, 0x00, 0xA0, // LD (0xA000),A
		0x18, 0xFE,
	)

	e := New(WithSaveDir(dir))
	if err := e.InsertROM(rom); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	run(e, 50)
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	h, _ := e.Header()
	if _, err := os.Stat(cartridge.SavePath(dir, h)); err != nil {
		t.Fatalf("save file missing: %v", err)
	}

	restored := New(WithSaveDir(dir))
	if err := restored.InsertROM(rom); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	if got := restored.Cartridge().RAM()[0]; got != 0x5A {
		t.Errorf("restored RAM[0] = 0x%02X, want 0x5A", got)
	}
}

func TestInsertROMFlushesPreviousSave(t *testing.T) {
	dir := t.TempDir()
	rom := buildROM(t, cartridge.TypeMBC1RAMBattery, 2, nil,
		0x3E, 0x0A,
		0xEA, 0x00, 0x00,
		0x3E, 0x77,
		0xEA, 0x00, 0xA0,
		0x18, 0xFE,
	)

	e := New(WithSaveDir(dir))
	if err := e.InsertROM(rom); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	run(e, 50)
	h, _ := e.Header()
	path := cartridge.SavePath(dir, h)

	if err := e.InsertROM(buildROM(t, cartridge.TypeROMOnly, 0, nil, loop...)); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("save file missing after swap: %v", err)
	}
	if data[0] != 0x77 {
		t.Errorf("saved RAM[0] = 0x%02X, want 0x77", data[0])
	}
}

func TestBatterySavesToCurrentDirByDefault(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	e := New()
	if err := e.InsertROM(buildROM(t, cartridge.TypeMBC1RAMBattery, 2, nil,
		0x3E, 0x0A,
		0xEA, 0x00, 0x00,
		0x3E, 0x42,
		0xEA, 0x00, 0xA0,
		0x18, 0xFE,
	)); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	run(e, 50)
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "EMUTEST.sav"))
	if err != nil {
		t.Fatalf("save file missing from current directory: %v", err)
	}
	if data[0] != 0x42 {
		t.Errorf("saved RAM[0] = 0x%02X, want 0x42", data[0])
	}
}

func TestEmptySaveDirDisablesPersistence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	e := New(WithSaveDir(""))
	if err := e.InsertROM(buildROM(t, cartridge.TypeMBC1RAMBattery, 2, nil, loop...)); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("current directory has %d entries, want 0", len(entries))
	}
}

func TestTimerInterrupt(t *testing.T) {
	handler := []byte{
		0x3E, 0x99, // LD A,0x99
		0xEA, 0x00, 0xC0, // LD (0xC000),A
		0x18, 0xFE,
	}
	rom := buildROM(t, cartridge.TypeROMOnly, 0, map[uint16][]byte{0x0050: handler},
		0x3E, 0x04, // LD A,0x04
		0xE0, 0xFF, // LDH (IE),A
		0x3E, 0xFE, // LD A,0xFE
		0xE0, 0x05, // LDH (TIMA),A
		0x3E, 0x05, // LD A,0x05
		0xE0, 0x07, // LDH (TAC),A
		0xFB,       // EI
		0x18, 0xFE, // JR -2
	)
	e := New()
	if err := e.InsertROM(rom); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	run(e, 200)

	if got := e.Bus().Read(0xC000); got != 0x99 {
		t.Errorf("handler marker = 0x%02X, want 0x99", got)
	}
	if got := e.Bus().Read(0xFF0F); got&0x04 != 0 {
		t.Errorf("IF = 0x%02X, timer bit still set", got)
	}
	if e.Bus().Interrupts().IME {
		t.Error("IME still set inside the handler")
	}
}

func TestSetButton(t *testing.T) {
	e := newWithProgram(t, nil, loop...)
	e.Bus().Write(0xFF0F, 0x00)
	e.Bus().Write(0xFF00, 0x20) // select the direction row

	e.SetButton(input.Down, true)
	if got := e.Bus().Read(0xFF00); got != 0xE7 {
		t.Errorf("JOYP = 0x%02X, want 0xE7", got)
	}
	if got := e.Bus().Read(0xFF0F); got&0x10 == 0 {
		t.Errorf("IF = 0x%02X, want joypad bit set", got)
	}

	e.SetButton(input.Down, false)
	if got := e.Bus().Read(0xFF00); got != 0xEF {
		t.Errorf("JOYP after release = 0x%02X, want 0xEF", got)
	}
}

func TestBootROM(t *testing.T) {
	boot := make([]byte, 0x100)
	copy(boot, []byte{
		0x3E, 0x01, // LD A,0x01
		0xE0, 0x50, // LDH (0x50),A
	})

	e := New(WithBootROM(boot))
	if err := e.InsertROM(buildROM(t, cartridge.TypeROMOnly, 0, nil, loop...)); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	if !e.Bus().BootROMActive() {
		t.Fatal("boot ROM not mapped after insert")
	}
	if pc := e.CPU().Registers.PC; pc != 0x0000 {
		t.Errorf("PC = 0x%04X, want 0x0000", pc)
	}
	if got := e.Bus().Read(0x0000); got != 0x3E {
		t.Errorf("Read(0x0000) = 0x%02X, want boot ROM byte 0x3E", got)
	}

	run(e, 5)
	if e.Bus().BootROMActive() {
		t.Error("boot ROM still mapped after write to 0xFF50")
	}
	if got := e.Bus().Read(0x0000); got != 0x00 {
		t.Errorf("Read(0x0000) = 0x%02X, want cartridge byte 0x00", got)
	}
	if pc := e.CPU().Registers.PC; pc != 0x0004 {
		t.Errorf("PC = 0x%04X, want 0x0004", pc)
	}
}

func TestTrace(t *testing.T) {
	var trace bytes.Buffer
	e := newWithProgram(t, []Option{WithTrace(&trace)}, 0x00, 0x18, 0xFE)
	run(e, 6)

	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	wantPrefixes := []string{
		"PC:0100 OP:C3 JP a16",
		"PC:0150 OP:00 NOP",
		"PC:0151 OP:18 JR",
	}
	if len(lines) < len(wantPrefixes) {
		t.Fatalf("trace has %d lines, want at least %d:\n%s", len(lines), len(wantPrefixes), trace.String())
	}
	for i, want := range wantPrefixes {
		if !strings.HasPrefix(lines[i], want) {
			t.Errorf("trace line %d = %q, want prefix %q", i, lines[i], want)
		}
	}
}

func TestWithPalette(t *testing.T) {
	shades := [4]uint32{0xFFE0F8D0, 0xFF88C070, 0xFF346856, 0xFF081820}
	e := newWithProgram(t, []Option{WithPalette(shades)}, loop...)
	e.RunFrame()

	fb := e.Framebuffer()
	// VRAM is zero so every pixel is colour 0, which BGP 0xFC maps to shade 0.
	for _, i := range []int{0, ppu.ScreenWidth*ppu.ScreenHeight/2 + 7, len(fb) - 1} {
		if fb[i] != shades[0] {
			t.Errorf("pixel %d = 0x%08X, want 0x%08X", i, fb[i], shades[0])
		}
	}
}

func TestMBC3ClockIsTicked(t *testing.T) {
	e := New(WithSaveDir(t.TempDir()))
	if err := e.InsertROM(buildROM(t, cartridge.TypeMBC3TimerRAMBattery, 2, nil, loop...)); err != nil {
		t.Fatalf("InsertROM() error = %v", err)
	}
	if e.ticker == nil {
		t.Fatal("MBC3 cartridge not registered as a ticker")
	}

	run(e, cartridge.MCyclesPerSecond)
	mbc3, ok := e.Cartridge().(*cartridge.MBC3)
	if !ok {
		t.Fatalf("Cartridge() = %T, want *cartridge.MBC3", e.Cartridge())
	}
	mbc3.RTC().Latch()
	if got := mbc3.RTC().Read(cartridge.RTCSeconds); got != 1 {
		t.Errorf("RTC seconds = %d, want 1", got)
	}
}

func BenchmarkRunFrame(b *testing.B) {
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], []byte{0x18, 0xFE})
	copy(rom[0x0134:], "BENCH")
	rom[0x014D] = cartridge.HeaderChecksum(rom)

	e := New()
	if err := e.InsertROM(rom); err != nil {
		b.Fatalf("InsertROM() error = %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.RunFrame()
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error = %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Chdir(%q) error = %v", old, err)
		}
	})
}
