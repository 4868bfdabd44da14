// Package config loads and persists the small JSON document that
// parameterizes the bank grammar: the prefix character, the numeric
// base, and the zero-pad widths for bank/register/address tokens.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the parameterization of the bank text grammar.
type Config struct {
	Prefix    string `json:"prefix"`
	Base      int    `json:"base"`
	WidthBank int    `json:"widthBank"`
	WidthReg  int    `json:"widthReg"`
	WidthAddr int    `json:"widthAddr"`
}

// Defaults matches the values spec.md §4.2 mandates when no config
// file exists yet.
func Defaults() Config {
	return Config{
		Prefix:    "x",
		Base:      10,
		WidthBank: 5,
		WidthReg:  2,
		WidthAddr: 4,
	}
}

// PrefixByte returns the configured prefix as a single byte. Load and
// Normalize guarantee Prefix is never empty, so this never panics on a
// value that has passed through either of them.
func (c Config) PrefixByte() byte {
	return c.Prefix[0]
}

// Normalize clamps Base into [2,36] (collapsing to 10 otherwise),
// reduces Prefix to its first character, and floors widths at 0.
func (c Config) Normalize() Config {
	if c.Base < 2 || c.Base > 36 {
		c.Base = 10
	}
	if len(c.Prefix) > 1 {
		c.Prefix = c.Prefix[:1]
	} else if c.Prefix == "" {
		c.Prefix = "x"
	}
	if c.WidthBank < 0 {
		c.WidthBank = 0
	}
	if c.WidthReg < 0 {
		c.WidthReg = 0
	}
	if c.WidthAddr < 0 {
		c.WidthAddr = 0
	}
	return c
}

// Load reads the config file at path. If it is missing, the defaults
// are written to path (best-effort — a write failure is swallowed,
// mirroring the bank/workspace policy that an unwritable target still
// returns usable in-memory state) and returned. If it exists, it is
// parsed leniently: missing keys take defaults, and prefix takes only
// the first character of its string value.
func Load(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Defaults()
		_ = Save(path, cfg)
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	// Decode onto a copy of the defaults so that missing keys keep
	// their default value rather than zeroing out.
	raw := struct {
		Prefix    *string `json:"prefix"`
		Base      *int    `json:"base"`
		WidthBank *int    `json:"widthBank"`
		WidthReg  *int    `json:"widthReg"`
		WidthAddr *int    `json:"widthAddr"`
	}{}
	if err := json.Unmarshal(buf, &raw); err != nil {
		return Config{}, err
	}

	cfg := Defaults()
	if raw.Prefix != nil && *raw.Prefix != "" {
		cfg.Prefix = (*raw.Prefix)[:1]
	}
	if raw.Base != nil {
		cfg.Base = *raw.Base
	}
	if raw.WidthBank != nil {
		cfg.WidthBank = *raw.WidthBank
	}
	if raw.WidthReg != nil {
		cfg.WidthReg = *raw.WidthReg
	}
	if raw.WidthAddr != nil {
		cfg.WidthAddr = *raw.WidthAddr
	}
	return cfg.Normalize(), nil
}

// Save persists cfg to path as JSON, creating parent directories as
// needed.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
