// Package main provides the mcycle CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/richardwooding/mcycle/internal/emulator"
	"github.com/richardwooding/mcycle/internal/log"
	"github.com/richardwooding/mcycle/internal/ppu"
	"github.com/richardwooding/mcycle/internal/romfile"
	"github.com/richardwooding/mcycle/internal/testrom"
)

var (
	// ErrTestFailed indicates a test ROM failed.
	ErrTestFailed = errors.New("test failed")

	// ErrInvalidScale indicates the scale factor is out of valid range.
	ErrInvalidScale = errors.New("scale must be between 1 and 10")
)

// CLI represents the command-line interface structure.
type CLI struct {
	Config   string `type:"path" help:"Configuration file (default: $UserConfigDir/mcycle/config.toml)."`
	Log      string `help:"Enable info and debug logs for modules (emu,cpu,mem,ppu,cart,timer,input or all)." placeholder:"mod0,mod1,..."`
	LogLevel string `help:"Log level (debug, info, warn, error)."`

	Info InfoCmd `cmd:"" help:"Display cartridge information."`
	Run  RunCmd  `cmd:"" help:"Run a Game Boy ROM."`
	Test TestCmd `cmd:"" help:"Run test ROMs and report results."`
	Shot ShotCmd `cmd:"" help:"Run a ROM headlessly and save a screenshot."`
}

// RunCmd runs a Game Boy ROM.
type RunCmd struct {
	ROM   string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Scale int    `help:"Display scale factor (1-10); overrides the config file."`
	Trace string `type:"path" help:"Write a CPU trace to this file."`
}

// Run executes the run command.
func (c *RunCmd) Run(cfg *Config) error {
	scale := cfg.Scale
	if c.Scale != 0 {
		scale = c.Scale
	}
	if scale < 1 || scale > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidScale, scale)
	}

	keys, err := cfg.KeyMap()
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}

	var extra []emulator.Option
	if c.Trace != "" {
		f, err := os.Create(c.Trace)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		defer f.Close()
		extra = append(extra, emulator.WithTrace(f))
	}

	emu, err := newEmulator(cfg, c.ROM, true, extra...)
	if err != nil {
		return err
	}
	defer closeEmulator(emu)

	title := "mcycle"
	if h, err := emu.Header(); err == nil && h.Title() != "" {
		title += " - " + h.Title()
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(ppu.ScreenWidth*scale, ppu.ScreenHeight*scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(NewDisplay(emu, keys)); err != nil {
		return fmt.Errorf("emulator error: %w", err)
	}
	return nil
}

// TestCmd runs test ROMs and reports results.
type TestCmd struct {
	ROMs    []string `arg:"" name:"rom" type:"existingfile" help:"Paths to test ROM files."`
	Frames  int      `default:"1800" help:"Emulated-time budget per ROM, in frames."`
	Stable  int      `help:"Stop once the screen is unchanged for this many frames (0 disables)."`
	Expect  string   `help:"Expected screen hash in hex, as printed for a stable screen."`
	Jobs    int      `short:"j" help:"Number of ROMs run in parallel (0 uses every CPU)."`
	Verbose bool     `short:"v" help:"Show detailed output."`
}

// Run executes the test command.
func (c *TestCmd) Run(cfg *Config, out io.Writer) error {
	opts := testrom.Options{Frames: c.Frames, StableFrames: c.Stable}
	if c.Expect != "" {
		h, err := strconv.ParseUint(strings.TrimPrefix(c.Expect, "0x"), 16, 64)
		if err != nil {
			return fmt.Errorf("invalid --expect hash: %w", err)
		}
		opts.ExpectHash = h
	}
	if cfg.BootROM != "" {
		boot, err := romfile.Load(cfg.BootROM)
		if err != nil {
			return fmt.Errorf("failed to read boot ROM: %w", err)
		}
		opts.BootROM = boot
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := runTests(ctx, c.ROMs, opts, c.Jobs)

	failed := 0
	for i, r := range results {
		_, _ = fmt.Fprintf(out, "%-40s %s (%d frames)\n", filepath.Base(c.ROMs[i]), r, r.Frames)
		if c.Verbose || !r.IsSuccess() {
			if r.Output != "" {
				_, _ = fmt.Fprintf(out, "\nOutput:\n%s\n", r.Output)
			}
		}
		if !r.IsSuccess() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTestFailed, failed, len(results))
	}
	return nil
}

// runTests runs every ROM on its own emulator, at most jobs at a time.
func runTests(ctx context.Context, roms []string, opts testrom.Options, jobs int) []*testrom.Result {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]*testrom.Result, len(roms))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range roms {
		g.Go(func() error {
			results[i] = testrom.Run(ctx, path, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// newEmulator builds an emulator configured from cfg with the ROM at
// romPath inserted. Battery saves go to the current directory unless the
// config names one; persist false disables them.
func newEmulator(cfg *Config, romPath string, persist bool, extra ...emulator.Option) (*emulator.Emulator, error) {
	data, err := romfile.Load(romPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}

	var opts []emulator.Option
	switch {
	case !persist:
		opts = append(opts, emulator.WithSaveDir(""))
	case cfg.SaveDir != "":
		opts = append(opts, emulator.WithSaveDir(cfg.SaveDir))
	}
	if cfg.BootROM != "" {
		boot, err := romfile.Load(cfg.BootROM)
		if err != nil {
			return nil, fmt.Errorf("failed to read boot ROM: %w", err)
		}
		opts = append(opts, emulator.WithBootROM(boot))
	}
	shades, ok, err := cfg.Shades()
	if err != nil {
		return nil, fmt.Errorf("invalid palette: %w", err)
	}
	if ok {
		opts = append(opts, emulator.WithPalette(shades))
	}
	opts = append(opts, extra...)

	emu := emulator.New(opts...)
	if err := emu.InsertROM(data); err != nil {
		return nil, fmt.Errorf("failed to create emulator: %w", err)
	}
	return emu, nil
}

func closeEmulator(emu *emulator.Emulator) {
	if err := emu.Close(); err != nil {
		log.ModEmu.Errorf("failed to save battery RAM: %v", err)
	}
}

// setupLogging applies the log flags, falling back to the config file.
func setupLogging(cli *CLI, cfg *Config) error {
	level := cfg.LogLevel
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	if level != "" {
		if err := log.SetLevel(level); err != nil {
			return err
		}
	}
	if cli.Log != "" {
		mask, err := log.ParseModules(cli.Log)
		if err != nil {
			return err
		}
		log.EnableModules(mask)
	}
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("mcycle"),
		kong.Description("A cycle-accurate Game Boy (DMG) emulator written in Go."),
		kong.UsageOnError(),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
	)

	cfg, err := LoadConfig(cli.Config)
	if err == nil {
		err = setupLogging(cli, &cfg)
	}
	if err == nil {
		ctx.Bind(&cfg)
		err = ctx.Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
