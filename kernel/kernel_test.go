package kernel

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/resolver"
	"github.com/corebank/bankdef/workspace"
)

func setupWorkspace(t *testing.T) (*workspace.Workspace, config.Config, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "files"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	return workspace.New(root, cfg), cfg, root
}

func writeEchoPlugin(t *testing.T, pluginsDir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("plugin launch test targets the POSIX sh -c path")
	}

	dir := filepath.Join(pluginsDir, "echo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	manifest := `{"name":"echo","entry_lin":"run.sh","entry_win":"run.bat"}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	script := "#!/bin/sh\nrunDir=\"$2\"\necho '{\"ok\":true,\"metrics\":{\"line_count\":1}}' > \"$runDir/output.json\"\n"
	scriptPath := filepath.Join(dir, "run.sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestRunHappyPath(t *testing.T) {
	ws, cfg, root := setupWorkspace(t)
	pluginsDir := filepath.Join(root, "plugins")
	writeEchoPlugin(t, pluginsDir)

	b, err := ws.Open(99001)
	if err != nil {
		t.Fatal(err)
	}
	b.Title = "lab"
	b.Set(1, 2, []byte("hello plugin"))
	if err := ws.Write(99001); err != nil {
		t.Fatal(err)
	}

	r := resolver.New(ws, cfg)
	k := New(ws, r, cfg, pluginsDir)

	result, err := k.Run(context.Background(), "echo", 99001, 1, 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("got exit code %d", result.ExitCode)
	}

	var parsed struct {
		OK      bool `json:"ok"`
		Metrics struct {
			LineCount int `json:"line_count"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(result.Output, &parsed); err != nil {
		t.Fatalf("output.json did not parse: %v (%s)", err, result.Output)
	}
	if !parsed.OK {
		t.Fatal("expected ok=true")
	}

	if _, err := os.Stat(filepath.Join(result.RunDir, "code.txt")); err != nil {
		t.Fatalf("expected code.txt in run dir: %v", err)
	}
	code, err := os.ReadFile(filepath.Join(result.RunDir, "code.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(code) != "hello plugin" {
		t.Fatalf("got code.txt %q", code)
	}

	inputData, err := os.ReadFile(filepath.Join(result.RunDir, "input.json"))
	if err != nil {
		t.Fatal(err)
	}
	var input map[string]any
	if err := json.Unmarshal(inputData, &input); err != nil {
		t.Fatalf("input.json did not parse: %v", err)
	}
	if input["bank"] != "x99001" {
		t.Fatalf("got bank field %v", input["bank"])
	}
	if stdin, ok := input["stdin"].(map[string]any); !ok || len(stdin) != 0 {
		t.Fatalf("got stdin field %v, want an empty object", input["stdin"])
	}
}

func TestRunMissingValue(t *testing.T) {
	ws, cfg, root := setupWorkspace(t)
	pluginsDir := filepath.Join(root, "plugins")
	writeEchoPlugin(t, pluginsDir)

	if _, err := ws.Open(1); err != nil {
		t.Fatal(err)
	}

	r := resolver.New(ws, cfg)
	k := New(ws, r, cfg, pluginsDir)

	_, err := k.Run(context.Background(), "echo", 1, 1, 1, "")
	if err == nil {
		t.Fatal("expected error for missing cell")
	}
	re, ok := err.(*RunError)
	if !ok || re.Kind != NoValue {
		t.Fatalf("got %v, want NoValue RunError", err)
	}
}

func TestRunUnknownPlugin(t *testing.T) {
	ws, cfg, root := setupWorkspace(t)
	pluginsDir := filepath.Join(root, "plugins")
	writeEchoPlugin(t, pluginsDir)

	r := resolver.New(ws, cfg)
	k := New(ws, r, cfg, pluginsDir)

	_, err := k.Run(context.Background(), "does-not-exist", 1, 1, 1, "")
	if err == nil {
		t.Fatal("expected error for unknown plugin")
	}
	re, ok := err.(*RunError)
	if !ok || re.Kind != PluginNotFound {
		t.Fatalf("got %v, want PluginNotFound RunError", err)
	}
}

func TestRunNoOutput(t *testing.T) {
	ws, cfg, root := setupWorkspace(t)
	if runtime.GOOS == "windows" {
		t.Skip("plugin launch test targets the POSIX sh -c path")
	}
	pluginsDir := filepath.Join(root, "plugins")
	dir := filepath.Join(pluginsDir, "silent")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(`{"name":"silent","entry_lin":"run.sh","entry_win":"run.bat"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	b, err := ws.Open(1)
	if err != nil {
		t.Fatal(err)
	}
	b.Set(1, 1, []byte("v"))
	if err := ws.Write(1); err != nil {
		t.Fatal(err)
	}

	r := resolver.New(ws, cfg)
	k := New(ws, r, cfg, pluginsDir)

	_, err = k.Run(context.Background(), "silent", 1, 1, 1, "")
	if err == nil {
		t.Fatal("expected NoOutput error")
	}
	re, ok := err.(*RunError)
	if !ok || re.Kind != NoOutput {
		t.Fatalf("got %v, want NoOutput RunError", err)
	}
}

func TestDiscoverPluginsSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good")
	bad := filepath.Join(root, "bad")
	empty := filepath.Join(root, "empty-name")
	for _, d := range []string{good, bad, empty} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(good, "plugin.json"), []byte(`{"name":"good","entry_lin":"run.sh","entry_win":"run.bat"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, "plugin.json"), []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(empty, "plugin.json"), []byte(`{"name":""}`), 0o644); err != nil {
		t.Fatal(err)
	}

	plugins, err := DiscoverPlugins(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Fatalf("got %+v", plugins)
	}
}
