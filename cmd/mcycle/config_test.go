package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/richardwooding/mcycle/internal/input"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
scale = 4
save_dir = "/tmp/saves"
boot_rom = "/tmp/dmg_boot.bin"
log_level = "debug"

[palette]
shades = ["#E0F8D0", "88C070", "0xFF346856", "081820"]

[keys]
A = "J"
Start = "Space"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := Config{
		Scale:    4,
		SaveDir:  "/tmp/saves",
		BootROM:  "/tmp/dmg_boot.bin",
		LogLevel: "debug",
		Palette:  PaletteConfig{Shades: []string{"#E0F8D0", "88C070", "0xFF346856", "081820"}},
		Keys:     map[string]string{"A": "J", "Start": "Space"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}

	shades, ok, err := cfg.Shades()
	if err != nil || !ok {
		t.Fatalf("Shades() = %v, %v", ok, err)
	}
	wantShades := [4]uint32{0xFFE0F8D0, 0xFF88C070, 0xFF346856, 0xFF081820}
	if shades != wantShades {
		t.Errorf("Shades() = %08X, want %08X", shades, wantShades)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "scale = [")); err == nil {
		t.Error("LoadConfig() error = nil for malformed TOML")
	}
}

func TestShadesErrors(t *testing.T) {
	tests := []struct {
		name   string
		shades []string
	}{
		{"count", []string{"FFFFFF", "000000"}},
		{"hex", []string{"FFFFFF", "GGGGGG", "555555", "000000"}},
		{"length", []string{"FFF", "AAAAAA", "555555", "000000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Palette: PaletteConfig{Shades: tt.shades}}
			if _, _, err := cfg.Shades(); err == nil {
				t.Errorf("Shades(%v) error = nil", tt.shades)
			}
		})
	}

	cfg := DefaultConfig()
	if _, ok, err := cfg.Shades(); ok || err != nil {
		t.Errorf("Shades() without palette = %v, %v, want false, nil", ok, err)
	}
}

func TestKeyMap(t *testing.T) {
	cfg := Config{Keys: map[string]string{"a": "j"}}
	keys, err := cfg.KeyMap()
	if err != nil {
		t.Fatalf("KeyMap() error = %v", err)
	}

	if got := keys[ebiten.KeyJ]; got != input.A {
		t.Errorf("keys[J] = %v, want A", got)
	}
	if _, ok := keys[ebiten.KeyZ]; ok {
		t.Error("default binding Z still maps to a button after rebinding A")
	}
	if got := keys[ebiten.KeyArrowUp]; got != input.Up {
		t.Errorf("keys[ArrowUp] = %v, want Up", got)
	}
	if len(keys) != len(defaultKeys) {
		t.Errorf("len(keys) = %d, want %d", len(keys), len(defaultKeys))
	}
}

func TestKeyMapErrors(t *testing.T) {
	for _, keys := range []map[string]string{
		{"Turbo": "J"},
		{"A": "NoSuchKey"},
	} {
		cfg := Config{Keys: keys}
		if _, err := cfg.KeyMap(); err == nil {
			t.Errorf("KeyMap(%v) error = nil", keys)
		}
	}
}
