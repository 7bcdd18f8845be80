// Package cartridge implements Game Boy cartridge loading, the memory bank
// controllers (MBC0, MBC1, MBC2, MBC3) and battery-backed save files.
package cartridge

import (
	"errors"
	"fmt"
	"strings"
)

// Header offsets within the ROM image.
const (
	headerStart      = 0x0100
	titleStart       = 0x0134
	titleEnd         = 0x013F
	manufacturerEnd  = 0x0143
	cgbFlagAddr      = 0x0143
	newLicenseeAddr  = 0x0144
	sgbFlagAddr      = 0x0146
	cartTypeAddr     = 0x0147
	romSizeAddr      = 0x0148
	ramSizeAddr      = 0x0149
	destinationAddr  = 0x014A
	oldLicenseeAddr  = 0x014B
	versionAddr      = 0x014C
	headerSumAddr    = 0x014D
	globalSumAddr    = 0x014E
	headerEnd        = 0x0150
	checksumFrom     = 0x0134
	checksumTo       = 0x014C
	cgbOnly          = 0xC0
	romBankSize      = 0x4000
	ramBankSize      = 0x2000
	maxROMSizeCode   = 0x08
	maxROMSizeBytes  = 8 * 1024 * 1024
	mbc2RAMSize      = 512
	titleLength      = titleEnd - titleStart
	manufacturerSize = manufacturerEnd - titleEnd
)

// ErrInvalidROMSize indicates the ROM data is too small to contain a header.
var ErrInvalidROMSize = errors.New("ROM too small: must be at least 336 bytes (0x0150)")

// ErrInvalidHeaderChecksum indicates the header checksum does not match.
var ErrInvalidHeaderChecksum = errors.New("invalid header checksum")

// Header is the cartridge header at 0x0100-0x014F.
type Header struct {
	EntryPoint   [4]byte
	NintendoLogo [48]byte

	// RawTitle is the 11 byte, NUL padded title at 0x0134.
	RawTitle         [titleLength]byte
	ManufacturerCode [manufacturerSize]byte

	// CGBFlag is 0x80 for CGB enhanced games and 0xC0 for CGB only games.
	CGBFlag         byte
	NewLicenseeCode [2]byte
	SGBFlag         byte
	CartridgeType   CartridgeType

	// ROMSize is the size code: 32 KiB << ROMSize.
	ROMSize byte

	// RAMSize is the size code resolved by RAMSizeBytes.
	RAMSize         byte
	DestinationCode byte
	OldLicenseeCode byte
	MaskROMVersion  byte
	HeaderChecksum  byte
	GlobalChecksum  uint16
}

// ParseHeader parses and validates the header of a ROM image.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidROMSize, len(rom))
	}

	h := &Header{}
	copy(h.EntryPoint[:], rom[headerStart:])
	copy(h.NintendoLogo[:], rom[headerStart+4:])
	copy(h.RawTitle[:], rom[titleStart:titleEnd])
	copy(h.ManufacturerCode[:], rom[titleEnd:manufacturerEnd])
	h.CGBFlag = rom[cgbFlagAddr]
	copy(h.NewLicenseeCode[:], rom[newLicenseeAddr:])
	h.SGBFlag = rom[sgbFlagAddr]
	h.CartridgeType = CartridgeType(rom[cartTypeAddr])
	h.ROMSize = rom[romSizeAddr]
	h.RAMSize = rom[ramSizeAddr]
	h.DestinationCode = rom[destinationAddr]
	h.OldLicenseeCode = rom[oldLicenseeAddr]
	h.MaskROMVersion = rom[versionAddr]
	h.HeaderChecksum = rom[headerSumAddr]
	h.GlobalChecksum = uint16(rom[globalSumAddr])<<8 | uint16(rom[globalSumAddr+1])

	if sum := HeaderChecksum(rom); sum != h.HeaderChecksum {
		return nil, fmt.Errorf("%w: computed 0x%02X, header has 0x%02X",
			ErrInvalidHeaderChecksum, sum, h.HeaderChecksum)
	}
	return h, nil
}

// HeaderChecksum computes the 8-bit checksum over 0x0134-0x014C.
func HeaderChecksum(rom []byte) byte {
	var x byte
	for i := checksumFrom; i <= checksumTo; i++ {
		x = x - rom[i] - 1
	}
	return x
}

// VerifyGlobalChecksum reports whether the 16-bit checksum matches the
// image. The DMG never checks it; it is only useful for diagnostics.
func VerifyGlobalChecksum(rom []byte, h *Header) bool {
	var sum uint16
	for i, b := range rom {
		if i == globalSumAddr || i == globalSumAddr+1 {
			continue
		}
		sum += uint16(b)
	}
	return sum == h.GlobalChecksum
}

// Title returns the title with NUL padding and trailing spaces removed.
func (h *Header) Title() string {
	end := len(h.RawTitle)
	for i, b := range h.RawTitle {
		if b == 0 {
			end = i
			break
		}
	}
	return strings.TrimRight(string(h.RawTitle[:end]), " ")
}

// CGBOnly reports whether the game refuses to run on a DMG.
func (h *Header) CGBOnly() bool {
	return h.CGBFlag == cgbOnly
}

// ROMBanks returns the number of 16 KiB ROM banks, or 0 for an invalid code.
func (h *Header) ROMBanks() int {
	if h.ROMSize > maxROMSizeCode {
		return 0
	}
	return 2 << h.ROMSize
}

// ROMSizeBytes returns the declared ROM size.
func (h *Header) ROMSizeBytes() int {
	return h.ROMBanks() * romBankSize
}

// RAMSizeBytes returns the declared external RAM size.
func (h *Header) RAMSizeBytes() int {
	switch h.RAMSize {
	case 0x01:
		return 2 * 1024
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	default:
		return 0
	}
}
