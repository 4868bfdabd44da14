package kernel

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/corebank/bankdef/util"
)

// Manifest is the decoded contents of plugins/<name>/plugin.json.
// Extra fields are ignored by encoding/json already; no validation
// beyond requiring a non-empty Name happens here.
type Manifest struct {
	Name     string `json:"name"`
	EntryWin string `json:"entry_win"`
	EntryLin string `json:"entry_lin"`
}

// Plugin pairs a manifest with the directory it was discovered in.
type Plugin struct {
	Manifest Manifest
	Dir      string
}

// DiscoverPlugins scans pluginsDir's immediate subdirectories for a
// plugin.json with a non-empty name, contributing one Plugin per hit.
// A subdirectory with no manifest, or an unreadable/malformed one, is
// silently absent from the result — per-plugin discovery failures
// never propagate as errors. A missing pluginsDir yields no plugins;
// any other failure to read pluginsDir itself is returned.
func DiscoverPlugins(pluginsDir string) ([]Plugin, error) {
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}

	results, err := util.ConcurrentMapFuncWithError(dirs, 8, func(name string) (*Plugin, error) {
		dir := filepath.Join(pluginsDir, name)
		data, err := os.ReadFile(filepath.Join(dir, "plugin.json"))
		if err != nil {
			return nil, nil
		}

		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, nil
		}
		if m.Name == "" {
			return nil, nil
		}
		return &Plugin{Manifest: m, Dir: dir}, nil
	})
	if err != nil {
		return nil, err
	}

	var plugins []Plugin
	for _, p := range results {
		if p != nil {
			plugins = append(plugins, *p)
		}
	}
	return plugins, nil
}
