// Package kernel stages a resolved cell value into a reproducible
// directory and invokes an external plugin program against it.
package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/numeric"
	"github.com/corebank/bankdef/resolver"
	"github.com/corebank/bankdef/workspace"
)

// Kernel runs named plugins against resolved cell values, within one
// workspace.
type Kernel struct {
	WS         *workspace.Workspace
	Resolver   *resolver.Resolver
	Cfg        config.Config
	PluginsDir string
}

// New returns a Kernel bound to ws/r/cfg, discovering plugin manifests
// under pluginsDir.
func New(ws *workspace.Workspace, r *resolver.Resolver, cfg config.Config, pluginsDir string) *Kernel {
	return &Kernel{WS: ws, Resolver: r, Cfg: cfg, PluginsDir: pluginsDir}
}

// RunResult is what a successful Run returns: the plugin's raw
// output.json bytes, plus a report of the process that produced it.
type RunResult struct {
	Output   []byte
	ExitCode int
	Stdout   string
	Stderr   string
	RunDir   string
}

// Run executes the named plugin against bank/reg/addr's resolved
// value, following the eleven-step procedure: load the cell, resolve
// it, stage a run directory, launch the plugin, and collect its
// output.json.
func (k *Kernel) Run(ctx context.Context, pluginName string, bankID, reg, addr uint64, stdinArg string) (*RunResult, error) {
	plugin, err := k.findPlugin(pluginName)
	if err != nil {
		return nil, err
	}

	b, err := k.WS.EnsureLoaded(bankID)
	if err != nil {
		return nil, &RunError{Kind: NoValue, Message: fmt.Sprintf("bank %d: %v", bankID, err)}
	}
	raw, ok := b.Get(reg, addr)
	if !ok {
		return nil, &RunError{Kind: NoValue, Message: fmt.Sprintf("no value at (%d,%d,%d)", bankID, reg, addr)}
	}

	resolved, err := k.Resolver.Resolve(ctx, bankID, string(raw), nil)
	if err != nil {
		return nil, fmt.Errorf("kernel: resolve: %w", err)
	}

	entry, err := selectEntry(plugin.Manifest)
	if err != nil {
		return nil, err
	}
	entryPath, err := filepath.Abs(filepath.Join(plugin.Dir, entry))
	if err != nil {
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}
	if _, err := os.Stat(entryPath); err != nil {
		return nil, &RunError{Kind: EntryNotFound, Message: entryPath}
	}

	finalDir := k.runDir(bankID, reg, addr, pluginName)
	scratchDir := finalDir + "-" + uuid.NewString()
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}

	codePath := filepath.Join(scratchDir, "code.txt")
	if err := os.WriteFile(codePath, []byte(resolved), 0o644); err != nil {
		os.RemoveAll(scratchDir)
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}

	stdinText, err := resolveStdinArg(stdinArg)
	if err != nil {
		os.RemoveAll(scratchDir)
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}

	absCodePath, err := filepath.Abs(codePath)
	if err != nil {
		os.RemoveAll(scratchDir)
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}

	inputJSON := buildInputJSON(
		k.Cfg.PrefixByte(), numeric.Format(bankID, k.Cfg.Base, k.Cfg.WidthBank),
		numeric.Format(reg, k.Cfg.Base, k.Cfg.WidthReg),
		numeric.Format(addr, k.Cfg.Base, k.Cfg.WidthAddr),
		b.Title, absCodePath, stdinText,
	)
	inputPath := filepath.Join(scratchDir, "input.json")
	if err := os.WriteFile(inputPath, inputJSON, 0o644); err != nil {
		os.RemoveAll(scratchDir)
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}

	if err := os.RemoveAll(finalDir); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(scratchDir)
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}
	if err := os.MkdirAll(filepath.Dir(finalDir), 0o755); err != nil {
		os.RemoveAll(scratchDir)
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}
	if err := os.Rename(scratchDir, finalDir); err != nil {
		return nil, &RunError{Kind: StagingFailure, Message: fmt.Sprintf("staging rename: %v", err)}
	}

	absInputPath, err := filepath.Abs(filepath.Join(finalDir, "input.json"))
	if err != nil {
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}
	absRunDir, err := filepath.Abs(finalDir)
	if err != nil {
		return nil, &RunError{Kind: StagingFailure, Message: err.Error()}
	}

	exitCode, stdout, stderr, err := k.launch(ctx, entryPath, absInputPath, absRunDir)
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(finalDir, "output.json")
	output, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, &RunError{
			Kind:     NoOutput,
			Message:  fmt.Sprintf("plugin %q did not write output.json", pluginName),
			ExitCode: exitCode,
			Stdout:   stdout,
			Stderr:   stderr,
		}
	}

	return &RunResult{Output: output, ExitCode: exitCode, Stdout: stdout, Stderr: stderr, RunDir: finalDir}, nil
}

func (k *Kernel) findPlugin(name string) (*Plugin, error) {
	plugins, err := DiscoverPlugins(k.PluginsDir)
	if err != nil {
		return nil, fmt.Errorf("kernel: discover plugins: %w", err)
	}
	for i := range plugins {
		if plugins[i].Manifest.Name == name {
			return &plugins[i], nil
		}
	}
	return nil, &RunError{Kind: PluginNotFound, Message: fmt.Sprintf("no plugin named %q", name)}
}

func selectEntry(m Manifest) (string, error) {
	entry := m.EntryLin
	if runtime.GOOS == "windows" {
		entry = m.EntryWin
	}
	if entry == "" {
		return "", &RunError{Kind: NoEntry, Message: fmt.Sprintf("plugin %q has no entry for this host", m.Name)}
	}
	return entry, nil
}

// runDir computes the deterministic final run directory for a plugin
// invocation against (bank, reg, addr).
func (k *Kernel) runDir(bankID, reg, addr uint64, pluginName string) string {
	ctx := fmt.Sprintf("%c%s", k.Cfg.PrefixByte(), numeric.Format(bankID, k.Cfg.Base, k.Cfg.WidthBank))
	coord := fmt.Sprintf("r%sa%s", numeric.Format(reg, k.Cfg.Base, k.Cfg.WidthReg), numeric.Format(addr, k.Cfg.Base, k.Cfg.WidthAddr))
	return filepath.Join(k.WS.FilesDir(), "out", "plugins", ctx, coord, pluginName)
}

// resolveStdinArg implements step 6: an existing file's bytes, the
// literal text otherwise, and "{}" for the empty string.
func resolveStdinArg(stdinArg string) (string, error) {
	if stdinArg == "" {
		return "{}", nil
	}
	if data, err := os.ReadFile(stdinArg); err == nil {
		return string(data), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	return stdinArg, nil
}

// launch runs the plugin entry against input/runDir, writing the
// run.cmd breadcrumb before starting the process and run.log/run.err
// after it exits. ctx is accepted for the caller's own cancellation
// bookkeeping; the core itself imposes no timeout.
func (k *Kernel) launch(ctx context.Context, entryPath, inputPath, runDir string) (int, string, string, error) {
	cmd, breadcrumb := buildLaunch(entryPath, inputPath, runDir)

	if err := os.WriteFile(filepath.Join(runDir, "run.cmd"), []byte(breadcrumb+"\n"), 0o644); err != nil {
		return 0, "", "", &RunError{Kind: StagingFailure, Message: err.Error()}
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return 0, "", "", &RunError{Kind: StagingFailure, Message: fmt.Sprintf("launch: %v", err)}
	}
	if err := afterStart(cmd); err != nil {
		slog.Warn("kernel: afterStart failed", "error", err)
	}

	waitErr := cmd.Wait()
	stdout := stdoutBuf.String()
	stderr := stderrBuf.String()

	_ = os.WriteFile(filepath.Join(runDir, "run.log"), []byte(stdout), 0o644)
	_ = os.WriteFile(filepath.Join(runDir, "run.err"), []byte(stderr), 0o644)

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return 0, stdout, stderr, &RunError{Kind: StagingFailure, Message: fmt.Sprintf("wait: %v", waitErr)}
		}
	}

	return exitCode, stdout, stderr, nil
}

// buildInputJSON assembles input.json by hand rather than through
// encoding/json's Marshal, because stdin must be embedded verbatim:
// the kernel does not validate it, and a Marshaler round trip through
// json.RawMessage would reject anything that isn't itself valid JSON.
func buildInputJSON(prefix byte, bankField, regField, addrField, title, codeFile, stdinRaw string) []byte {
	bankJSON, _ := json.Marshal(fmt.Sprintf("%c%s", prefix, bankField))
	regJSON, _ := json.Marshal(regField)
	addrJSON, _ := json.Marshal(addrField)
	titleJSON, _ := json.Marshal(title)
	codeFileJSON, _ := json.Marshal(codeFile)

	var buf bytes.Buffer
	buf.WriteString(`{"bank": `)
	buf.Write(bankJSON)
	buf.WriteString(`, "reg": `)
	buf.Write(regJSON)
	buf.WriteString(`, "addr": `)
	buf.Write(addrJSON)
	buf.WriteString(`, "title": `)
	buf.Write(titleJSON)
	buf.WriteString(`, "code_file": `)
	buf.Write(codeFileJSON)
	buf.WriteString(`, "stdin": `)
	buf.WriteString(stdinRaw)
	buf.WriteString(`}`)
	return buf.Bytes()
}
