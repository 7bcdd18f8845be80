package main

import (
	"fmt"
	"io"

	"github.com/go-faster/jx"

	"github.com/richardwooding/mcycle/internal/cartridge"
	"github.com/richardwooding/mcycle/internal/romfile"
)

// InfoCmd displays cartridge header information.
type InfoCmd struct {
	ROM  string `arg:"" type:"existingfile" help:"Path to ROM file."`
	JSON bool   `help:"Print the header as JSON."`
}

// Run executes the info command.
func (c *InfoCmd) Run(out io.Writer) error {
	data, err := romfile.Load(c.ROM)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	cart, err := cartridge.New(data)
	if err != nil {
		return fmt.Errorf("failed to load cartridge: %w", err)
	}

	globalOK := cartridge.VerifyGlobalChecksum(data, cart.Header())
	if c.JSON {
		_, err = out.Write(headerJSON(cart, globalOK))
		return err
	}
	return writeInfo(out, cart, globalOK)
}

func writeInfo(out io.Writer, cart cartridge.Cartridge, globalOK bool) error {
	h := cart.Header()
	_, err := fmt.Fprintf(out, `ROM Information:
  Title:           %s
  Cartridge Type:  %s (0x%02X)
  ROM Size:        %d KiB (%d banks)
  RAM Size:        %d KiB
  Has Battery:     %v
  CGB Flag:        0x%02X
  SGB Flag:        0x%02X
  Header Checksum: 0x%02X
  Global Checksum: 0x%04X (valid: %v)
  Save File:       %s
`,
		h.Title(),
		h.CartridgeType, byte(h.CartridgeType),
		h.ROMSizeBytes()/1024, h.ROMBanks(),
		h.RAMSizeBytes()/1024,
		cart.HasBattery(),
		h.CGBFlag,
		h.SGBFlag,
		h.HeaderChecksum,
		h.GlobalChecksum, globalOK,
		cartridge.SaveFileName(h))
	return err
}

func headerJSON(cart cartridge.Cartridge, globalOK bool) []byte {
	h := cart.Header()
	var e jx.Encoder
	e.SetIdent(2)
	e.Obj(func(e *jx.Encoder) {
		e.Field("title", func(e *jx.Encoder) { e.Str(h.Title()) })
		e.Field("type", func(e *jx.Encoder) { e.Str(h.CartridgeType.String()) })
		e.Field("type_code", func(e *jx.Encoder) { e.Int(int(h.CartridgeType)) })
		e.Field("rom_size", func(e *jx.Encoder) { e.Int(h.ROMSizeBytes()) })
		e.Field("rom_banks", func(e *jx.Encoder) { e.Int(h.ROMBanks()) })
		e.Field("ram_size", func(e *jx.Encoder) { e.Int(h.RAMSizeBytes()) })
		e.Field("battery", func(e *jx.Encoder) { e.Bool(cart.HasBattery()) })
		e.Field("cgb_flag", func(e *jx.Encoder) { e.Int(int(h.CGBFlag)) })
		e.Field("sgb_flag", func(e *jx.Encoder) { e.Int(int(h.SGBFlag)) })
		e.Field("header_checksum", func(e *jx.Encoder) { e.Int(int(h.HeaderChecksum)) })
		e.Field("global_checksum", func(e *jx.Encoder) { e.Int(int(h.GlobalChecksum)) })
		e.Field("global_checksum_valid", func(e *jx.Encoder) { e.Bool(globalOK) })
		e.Field("save_file", func(e *jx.Encoder) { e.Str(cartridge.SaveFileName(h)) })
	})
	return append(e.Bytes(), '\n')
}
