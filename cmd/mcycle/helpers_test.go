package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/richardwooding/mcycle/internal/cartridge"
)

// writeROM writes a 32 KiB ROM that spins at 0x0100 and returns its path.
func writeROM(t *testing.T, title string, cartType cartridge.CartridgeType, ramSize byte) string {
	t.Helper()
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], []byte{0x18, 0xFE}) // JR -2
	copy(rom[0x0134:], title)
	rom[0x0147] = byte(cartType)
	rom[0x0149] = ramSize
	rom[0x014D] = cartridge.HeaderChecksum(rom)

	path := filepath.Join(t.TempDir(), "test.gb")
	if err := os.WriteFile(path, rom, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}
