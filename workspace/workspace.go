// Package workspace holds the in-memory map of loaded banks for one
// process, lazily loading each bank from "files/<prefix><id>.txt" on
// first reference and keeping it resident for the workspace's
// lifetime.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/corebank/bankdef/bank"
	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/numeric"
	"github.com/corebank/bankdef/util"
)

// NotFoundError is returned by EnsureLoaded when the bank's backing
// file does not exist.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("workspace: bank %d not found", e.ID)
}

// Workspace is a single process's view of a "files/" tree: the banks
// loaded so far, and the path each was loaded from.
type Workspace struct {
	Root   string
	Config config.Config

	banks     map[uint64]*bank.Bank
	filenames map[uint64]string
}

// New returns a workspace rooted at root (the directory containing
// "files/"), with no banks yet loaded.
func New(root string, cfg config.Config) *Workspace {
	return &Workspace{
		Root:      root,
		Config:    cfg,
		banks:     map[uint64]*bank.Bank{},
		filenames: map[uint64]string{},
	}
}

// FilesDir is the "files/" subtree holding bank files and config.json.
func (w *Workspace) FilesDir() string {
	return filepath.Join(w.Root, "files")
}

func (w *Workspace) bankPath(id uint64) string {
	name := w.Config.Prefix + numeric.Format(id, w.Config.Base, w.Config.WidthBank) + ".txt"
	return filepath.Join(w.FilesDir(), name)
}

// Loaded reports whether id is currently resident, without triggering
// a load.
func (w *Workspace) Loaded(id uint64) bool {
	_, ok := w.banks[id]
	return ok
}

// EnsureLoaded returns the bank for id, loading it from disk on first
// reference. A missing backing file is reported as *NotFoundError, not
// silently skipped.
func (w *Workspace) EnsureLoaded(id uint64) (*bank.Bank, error) {
	if b, ok := w.banks[id]; ok {
		return b, nil
	}

	path := w.bankPath(id)
	b, err := bank.Load(path, w.Config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}

	w.banks[id] = b
	w.filenames[id] = path
	return b, nil
}

// Open loads the bank for id if its file exists, or creates it empty
// in memory (and writes it to disk, if possible) otherwise. The
// returned bank is non-nil even when the write-to-disk attempt fails;
// that failure is returned as err so it is reported, not swallowed.
func (w *Workspace) Open(id uint64) (*bank.Bank, error) {
	if b, ok := w.banks[id]; ok {
		return b, nil
	}

	path := w.bankPath(id)
	b, err := bank.Load(path, w.Config)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		b = bank.New(id, "")
		w.banks[id] = b
		w.filenames[id] = path

		if saveErr := bank.Save(path, b, w.Config); saveErr != nil {
			slog.Warn("workspace: created bank could not be persisted", "id", id, "path", path, "error", saveErr)
			return b, saveErr
		}
		return b, nil
	}

	w.banks[id] = b
	w.filenames[id] = path
	return b, nil
}

// Write persists the current in-memory state of bank id to its file.
func (w *Workspace) Write(id uint64) error {
	b, ok := w.banks[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	path, ok := w.filenames[id]
	if !ok {
		path = w.bankPath(id)
		w.filenames[id] = path
	}
	return bank.Save(path, b, w.Config)
}

// PreloadAll scans FilesDir for every file whose stem begins with the
// configured prefix and parses as a non-negative integer in the
// configured base, loading each as a bank. Entries that don't match
// are skipped silently — this mirrors scanning a directory that also
// holds config.json, out/, and other non-bank files.
//
// The scan itself overlaps file reads across a bounded pool of
// goroutines for latency, but PreloadAll does not return until every
// load has completed and been merged into the workspace in
// deterministic (filename-sorted) order, so to a caller this remains
// a single synchronous operation.
func (w *Workspace) PreloadAll() error {
	entries, err := os.ReadDir(w.FilesDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	type candidate struct {
		id   uint64
		path string
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".txt") {
			continue
		}
		stem := strings.TrimSuffix(name, ".txt")
		if !strings.HasPrefix(stem, w.Config.Prefix) {
			continue
		}
		idToken := stem[len(w.Config.Prefix):]
		id, err := numeric.Parse(idToken, w.Config.Base)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{id: id, path: filepath.Join(w.FilesDir(), name)})
	}

	type loaded struct {
		id   uint64
		path string
		b    *bank.Bank
	}
	results, err := util.ConcurrentMapFuncWithError(candidates, 8, func(c candidate) (loaded, error) {
		b, err := bank.Load(c.path, w.Config)
		if err != nil {
			return loaded{}, fmt.Errorf("preload %s: %w", c.path, err)
		}
		return loaded{id: c.id, path: c.path, b: b}, nil
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		if w.Loaded(r.id) {
			continue
		}
		w.banks[r.id] = r.b
		w.filenames[r.id] = r.path
	}
	return nil
}
