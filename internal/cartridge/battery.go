package cartridge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/richardwooding/mcycle/internal/log"
)

const saveExt = ".sav"

// SaveFileName returns the file name of the battery save for h.
func SaveFileName(h *Header) string {
	title := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, h.Title())
	title = strings.Trim(title, " .")
	if title == "" {
		title = "untitled"
	}
	return title + saveExt
}

// SavePath returns the full path of the battery save for h inside dir.
func SavePath(dir string, h *Header) string {
	return filepath.Join(dir, SaveFileName(h))
}

// LoadBattery restores battery RAM from dir. A missing or malformed file
// leaves the RAM zeroed; problems are logged, never returned.
func LoadBattery(c Cartridge, dir string) {
	if !c.HasBattery() {
		return
	}
	path := SavePath(dir, c.Header())
	entry := log.ModCart.WithField("path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			entry.Infof("no save file, starting with empty RAM")
		} else {
			entry.Warnf("reading save file: %v", err)
		}
		return
	}

	if err := c.LoadRAM(data); err != nil {
		entry.Warnf("ignoring save file: %v", err)
		_ = c.LoadRAM(make([]byte, len(c.RAM())))
		return
	}
	entry.Infof("loaded %d bytes of battery RAM", len(data))
}

// SaveBattery writes battery RAM into dir. Failures are logged and returned.
func SaveBattery(c Cartridge, dir string) error {
	if !c.HasBattery() {
		return nil
	}
	path := SavePath(dir, c.Header())
	if err := os.WriteFile(path, c.RAM(), 0o644); err != nil {
		log.ModCart.WithField("path", path).Warnf("writing save file: %v", err)
		return fmt.Errorf("saving battery RAM: %w", err)
	}
	log.ModCart.WithField("path", path).Debugf("battery RAM saved")
	return nil
}
