// Package romfile reads ROM and boot ROM images from disk, unpacking gzip,
// zip and 7z archives on the way.
package romfile

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// ErrEmptyArchive indicates an archive without a usable file.
var ErrEmptyArchive = errors.New("archive contains no ROM")

// romExts are the extensions preferred when picking a file from an archive.
var romExts = []string{".gb", ".gbc", ".bin"}

// Load reads the file at path, decompressing it if its extension names a
// supported archive format.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening gzip %s: %w", path, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)

	case ".zip":
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("opening zip %s: %w", path, err)
		}
		entries := make([]entry, 0, len(zr.File))
		for _, f := range zr.File {
			entries = append(entries, entry{f.Name, f.FileInfo(), f.Open})
		}
		return readBest(path, entries)

	case ".7z":
		sr, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("opening 7z %s: %w", path, err)
		}
		entries := make([]entry, 0, len(sr.File))
		for _, f := range sr.File {
			entries = append(entries, entry{f.Name, f.FileInfo(), f.Open})
		}
		return readBest(path, entries)
	}
	return data, nil
}

type entry struct {
	name string
	info fs.FileInfo
	open func() (io.ReadCloser, error)
}

// readBest reads the first entry with a ROM extension, or the first regular
// file if none has one.
func readBest(path string, entries []entry) ([]byte, error) {
	var pick *entry
	for i := range entries {
		e := &entries[i]
		if e.info.IsDir() {
			continue
		}
		if hasROMExt(e.name) {
			pick = e
			break
		}
		if pick == nil {
			pick = e
		}
	}
	if pick == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyArchive, path)
	}

	rc, err := pick.open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in %s: %w", pick.name, path, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func hasROMExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range romExts {
		if ext == e {
			return true
		}
	}
	return false
}
