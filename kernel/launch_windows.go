//go:build windows

package kernel

import (
	"os/exec"
	"strings"
)

// buildLaunch wraps the plugin invocation in the host shell's
// `/S /C "..."` form. The quoted command line doubles as the
// mandatory run.cmd breadcrumb.
func buildLaunch(entryPath, inputPath, runDir string) (*exec.Cmd, string) {
	quoted := strings.Join([]string{quoteArg(entryPath), quoteArg(inputPath), quoteArg(runDir)}, " ")
	cmd := exec.Command("cmd", "/S", "/C", quoted)
	return cmd, quoted
}

func quoteArg(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// afterStart is a no-op on Windows; process groups are a POSIX
// concept.
func afterStart(cmd *exec.Cmd) error {
	return nil
}
