package romfile

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var payload = []byte{0x00, 0xC3, 0x50, 0x01, 0xCE, 0xED}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func zipped(t *testing.T, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
		content := []byte("readme")
		if filepath.Ext(name) == ".gb" {
			content = payload
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

func TestLoadRaw(t *testing.T) {
	got, err := Load(writeFile(t, "game.gb", payload))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(payload, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := Load(writeFile(t, "game.gb.gz", buf.Bytes()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(payload, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadZipPrefersROM(t *testing.T) {
	path := writeFile(t, "game.zip", zipped(t, "README.txt", "game.gb"))
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(payload, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadZipFallsBackToFirstFile(t *testing.T) {
	path := writeFile(t, "game.zip", zipped(t, "notes.txt"))
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "readme" {
		t.Errorf("Load() = %q, want %q", got, "readme")
	}
}

func TestLoadEmptyZip(t *testing.T) {
	path := writeFile(t, "empty.zip", zipped(t))
	if _, err := Load(path); !errors.Is(err, ErrEmptyArchive) {
		t.Errorf("Load() error = %v, want ErrEmptyArchive", err)
	}
}

func TestLoadCorruptArchives(t *testing.T) {
	for _, name := range []string{"bad.gz", "bad.zip", "bad.7z"} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, name, []byte("not an archive"))); err == nil {
				t.Errorf("Load(%s) error = nil, want error", name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.gb"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}
