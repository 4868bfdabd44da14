package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Defaults() {
		t.Fatalf("got %+v, want defaults %+v", cfg, Defaults())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded != cfg {
		t.Fatalf("reload mismatch: got %+v, want %+v", reloaded, cfg)
	}
}

func TestLoadLenientMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"base": 16}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Defaults()
	want.Base = 16
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestLoadPrefixTakesFirstChar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"prefix": "zeta"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prefix != "z" {
		t.Fatalf("got prefix %q, want %q", cfg.Prefix, "z")
	}
}

func TestNormalizeBaseOutOfRangeCollapsesTo10(t *testing.T) {
	cfg := Config{Prefix: "x", Base: 99, WidthBank: -1}.Normalize()
	if cfg.Base != 10 {
		t.Fatalf("got base %d, want 10", cfg.Base)
	}
	if cfg.WidthBank != 0 {
		t.Fatalf("got widthBank %d, want 0", cfg.WidthBank)
	}
}
