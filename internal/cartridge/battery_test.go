package cartridge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveFileName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"POKEMON RED", "POKEMON RED.sav"},
		{"A/B\\C", "A_B_C.sav"},
		{"", "untitled.sav"},
	}
	for _, tt := range tests {
		h := &Header{}
		copy(h.RawTitle[:], tt.title)
		if got := SaveFileName(h); got != tt.want {
			t.Errorf("SaveFileName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestBatteryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rom := buildROM(TypeMBC1RAMBattery, 0, 2)

	c := mustNew(t, rom)
	c.Write(0x0000, 0x0A)
	c.Write(0xA000, 0xDE)
	c.Write(0xBFFF, 0xAD)
	if err := SaveBattery(c, dir); err != nil {
		t.Fatalf("SaveBattery() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "TESTCART.sav"))
	if err != nil {
		t.Fatalf("save file missing: %v", err)
	}
	if len(data) != 8192 {
		t.Fatalf("save size = %d, want 8192", len(data))
	}

	restored := mustNew(t, rom)
	LoadBattery(restored, dir)
	restored.Write(0x0000, 0x0A)
	if got := restored.Read(0xA000); got != 0xDE {
		t.Errorf("Read(0xA000) = 0x%02X, want 0xDE", got)
	}
	if got := restored.Read(0xBFFF); got != 0xAD {
		t.Errorf("Read(0xBFFF) = 0x%02X, want 0xAD", got)
	}
}

func TestLoadBatteryMissingFile(t *testing.T) {
	c := mustNew(t, buildROM(TypeMBC1RAMBattery, 0, 2))
	LoadBattery(c, t.TempDir())
	for _, b := range c.RAM() {
		if b != 0 {
			t.Fatal("RAM not zero after missing save file")
		}
	}
}

func TestLoadBatterySizeMismatch(t *testing.T) {
	dir := t.TempDir()
	c := mustNew(t, buildROM(TypeMBC1RAMBattery, 0, 2))
	bad := make([]byte, 100)
	for i := range bad {
		bad[i] = 0xEE
	}
	if err := os.WriteFile(SavePath(dir, c.Header()), bad, 0o644); err != nil {
		t.Fatal(err)
	}

	LoadBattery(c, dir)
	for i, b := range c.RAM() {
		if b != 0 {
			t.Fatalf("RAM[%d] = 0x%02X after mismatched save, want 0", i, b)
		}
	}
}

func TestSaveBatteryWithoutBattery(t *testing.T) {
	dir := t.TempDir()
	c := mustNew(t, buildROM(TypeMBC1RAM, 0, 2))
	if err := SaveBattery(c, dir); err != nil {
		t.Fatalf("SaveBattery() error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("SaveBattery() wrote %d files for a cartridge without battery", len(entries))
	}
}

func TestSaveBatteryWriteFailure(t *testing.T) {
	c := mustNew(t, buildROM(TypeMBC1RAMBattery, 0, 2))
	if err := SaveBattery(c, filepath.Join(t.TempDir(), "missing", "dir")); err == nil {
		t.Error("SaveBattery() into a missing directory returned nil")
	}
}
