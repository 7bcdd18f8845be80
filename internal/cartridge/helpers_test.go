package cartridge

// buildROM returns an image of the size declared by romSize with a valid
// header. The first byte of every bank past bank 0 holds the bank number.
func buildROM(cartType CartridgeType, romSize, ramSize byte) []byte {
	rom := make([]byte, (32*1024)<<romSize)
	for bank := 1; bank < len(rom)/romBankSize; bank++ {
		rom[bank*romBankSize] = byte(bank)
	}
	copy(rom[titleStart:], "TESTCART")
	rom[cartTypeAddr] = byte(cartType)
	rom[romSizeAddr] = romSize
	rom[ramSizeAddr] = ramSize
	rom[headerSumAddr] = HeaderChecksum(rom)
	return rom
}

func mustNew(t interface {
	Helper()
	Fatalf(string, ...any)
}, rom []byte) Cartridge {
	t.Helper()
	c, err := New(rom)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}
