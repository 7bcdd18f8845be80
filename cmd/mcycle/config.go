package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/richardwooding/mcycle/internal/input"
)

const cfgFilename = "config.toml"

// Config is the optional user configuration file.
type Config struct {
	Scale    int    `toml:"scale"`
	SaveDir  string `toml:"save_dir"`
	BootROM  string `toml:"boot_rom"`
	LogLevel string `toml:"log_level"`

	Palette PaletteConfig `toml:"palette"`

	// Keys maps button names (A, B, Start, Up, ...) to ebiten key names.
	Keys map[string]string `toml:"keys"`
}

// PaletteConfig holds the four shades, lightest first, as RRGGBB or
// AARRGGBB hex strings.
type PaletteConfig struct {
	Shades []string `toml:"shades"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() Config {
	return Config{
		Scale:    3,
		LogLevel: "warn",
	}
}

// DefaultConfigPath returns $UserConfigDir/mcycle/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mcycle", cfgFilename), nil
}

// LoadConfig reads the configuration at path, or at the default location
// when path is empty. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("reading config %s: %w", path, err)
	}
	return cfg, nil
}

// Shades parses the configured palette. ok is false when none is set.
func (c *Config) Shades() (shades [4]uint32, ok bool, err error) {
	if len(c.Palette.Shades) == 0 {
		return shades, false, nil
	}
	if len(c.Palette.Shades) != len(shades) {
		return shades, false, fmt.Errorf("palette needs 4 shades, got %d", len(c.Palette.Shades))
	}
	for i, s := range c.Palette.Shades {
		v, err := parseShade(s)
		if err != nil {
			return shades, false, err
		}
		shades[i] = v
	}
	return shades, true, nil
}

func parseShade(s string) (uint32, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid shade %q: %w", s, err)
	}
	switch len(h) {
	case 6:
		return 0xFF000000 | uint32(v), nil
	case 8:
		return uint32(v), nil
	}
	return 0, fmt.Errorf("invalid shade %q: want RRGGBB or AARRGGBB", s)
}

var defaultKeys = map[ebiten.Key]input.Button{
	ebiten.KeyArrowUp:    input.Up,
	ebiten.KeyArrowDown:  input.Down,
	ebiten.KeyArrowLeft:  input.Left,
	ebiten.KeyArrowRight: input.Right,
	ebiten.KeyZ:          input.A,
	ebiten.KeyX:          input.B,
	ebiten.KeyEnter:      input.Start,
	ebiten.KeyShift:      input.Select,
}

// KeyMap returns the keyboard bindings: the defaults with any configured
// button moved to its new key.
func (c *Config) KeyMap() (map[ebiten.Key]input.Button, error) {
	keys := make(map[ebiten.Key]input.Button, len(defaultKeys))
	for k, b := range defaultKeys {
		keys[k] = b
	}

	for name, keyName := range c.Keys {
		b, err := input.ParseButton(name)
		if err != nil {
			return nil, err
		}
		var k ebiten.Key
		if err := k.UnmarshalText([]byte(keyName)); err != nil {
			return nil, fmt.Errorf("button %s: %w", name, err)
		}
		for old, ob := range keys {
			if ob == b {
				delete(keys, old)
			}
		}
		keys[k] = b
	}
	return keys, nil
}
