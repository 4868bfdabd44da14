// Package testutil loads declarative YAML fixtures for resolver test
// scenarios and materializes them into real, temporary
// workspaces so package tests can exercise the library against actual
// files rather than hand-built in-memory state.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/workspace"
)

var stripHeredocRegex = regexp.MustCompilePOSIX("^\t*")

// BankFixture is one bank's setup within a TestCase: a title and its
// cells, keyed "<reg>.<addr>" in plain decimal regardless of the
// scenario's configured numeric base.
type BankFixture struct {
	Title string            `yaml:"title"`
	Cells map[string]string `yaml:"cells"`
}

// TestCase is one declarative resolver scenario: the bank
// fixtures to materialize, any files/ entries needed by @file
// references, and the resolution to check.
type TestCase struct {
	Setup       map[string]BankFixture `yaml:"setup"`       // bank id (decimal string) -> fixture
	Files       map[string]string      `yaml:"files"`       // files/<name> -> content
	CurrentBank uint64                 `yaml:"current_bank"`
	Input       string                 `yaml:"input"`
	Expect      string                 `yaml:"expect"`
}

// ReadTests loads every YAML file matching pattern into a name ->
// TestCase map, rejecting unknown fields and duplicate test names
// across files so fixtures fail fast instead of shadowing silently.
func ReadTests(pattern string) (map[string]TestCase, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	ret := map[string]TestCase{}
	testFileMap := map[string]string{}

	for _, file := range files {
		var tests map[string]*TestCase

		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		dec := yaml.NewDecoder(bytes.NewReader(buf), yaml.DisallowUnknownField())
		if err := dec.Decode(&tests); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		for name, test := range tests {
			if existingFile, ok := testFileMap[name]; ok {
				return nil, fmt.Errorf("duplicate test case name '%s': defined in both '%s' and '%s'", name, existingFile, file)
			}
			testFileMap[name] = file
			ret[name] = *test
		}
	}

	return ret, nil
}

// BuildWorkspace materializes tc's bank and file fixtures into a fresh
// temporary workspace rooted under t.TempDir(), using cfg for the
// bank text grammar.
func BuildWorkspace(t *testing.T, tc TestCase, cfg config.Config) *workspace.Workspace {
	t.Helper()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "files"), 0o755); err != nil {
		t.Fatal(err)
	}

	ws := workspace.New(root, cfg)

	for idToken, fixture := range tc.Setup {
		id, err := strconv.ParseUint(idToken, 10, 64)
		if err != nil {
			t.Fatalf("fixture bank id %q: %v", idToken, err)
		}

		b, err := ws.Open(id)
		if err != nil {
			t.Fatal(err)
		}
		b.Title = fixture.Title

		for coord, value := range fixture.Cells {
			reg, addr, err := parseCoordKey(coord)
			if err != nil {
				t.Fatalf("fixture cell key %q: %v", coord, err)
			}
			b.Set(reg, addr, []byte(value))
		}

		if err := ws.Write(id); err != nil {
			t.Fatal(err)
		}
	}

	for name, content := range tc.Files {
		WriteFile(filepath.Join(ws.FilesDir(), name), content)
	}

	return ws
}

func parseCoordKey(coord string) (uint64, uint64, error) {
	parts := strings.SplitN(coord, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"<reg>.<addr>\", got %q", coord)
	}
	reg, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	addr, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return reg, addr, nil
}

// WriteFile writes content to path, creating parent directories as
// needed, and fails the calling test (via panic, since this has no
// *testing.T) on error.
func WriteFile(path string, content string) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			panic(err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
}

// StripHeredoc drops one leading newline and then removes every
// leading tab from every line, the indentation YAML block scalars pick
// up from being written inline in a Go test file. It strips all leading
// tabs, not only the indentation common to all lines.
func StripHeredoc(heredoc string) string {
	trimmed := strings.TrimPrefix(heredoc, "\n")
	return stripHeredocRegex.ReplaceAllLiteralString(trimmed, "")
}
