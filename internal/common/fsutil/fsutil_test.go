package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	// raw path unaffected
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// empty path
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// ~ expansion
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	// ~/subdir
	exp, err := ExpandHome("~/models")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if filepath.Base(exp) != "models" {
		t.Fatalf("unexpected expanded path: %q", exp)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "model.gguf")
	if FileExists(p) {
		t.Fatalf("expected missing file")
	}
	if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !FileExists(p) {
		t.Fatalf("expected file to exist")
	}
	if FileExists(dir) {
		t.Fatalf("directory must not count as a file")
	}
}

func TestReadMagic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "proj.gguf")
	if err := os.WriteFile(p, []byte("GGUFxxxx"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	magic, err := ReadMagic(p, 4)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(magic) != "GGUF" {
		t.Fatalf("got %q", magic)
	}
	// too-short file
	short := filepath.Join(dir, "short")
	if err := os.WriteFile(short, []byte("GG"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadMagic(short, 4); err == nil {
		t.Fatalf("expected error for short file")
	}
}
