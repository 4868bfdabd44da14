package bank

import (
	"io"
	"os"
	"path/filepath"

	"github.com/corebank/bankdef/config"
)

// Load reads and parses the bank file at path.
func Load(path string, cfg config.Config) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, cfg)
}

// Save serializes b and writes it to path. The write is atomic-ish:
// the content lands in "<path>.tmp" first, then is renamed over path.
// If the rename fails because the two paths live on different
// volumes, the temp file is copied over the target and removed.
// Parent directories are created as needed.
func Save(path string, b *Bank, cfg config.Config) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data := Serialize(b, cfg)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		if copyErr := copyOverwrite(tmp, path); copyErr != nil {
			return copyErr
		}
		os.Remove(tmp)
	}
	return nil
}

func copyOverwrite(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
