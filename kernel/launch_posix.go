//go:build !windows

package kernel

import (
	"os/exec"

	shellquote "github.com/kballard/go-shellquote"
	"golang.org/x/sys/unix"
)

// buildLaunch wraps the plugin invocation as `sh -c '<quoted
// command>'`, quoting with shellquote rather than hand-escaping. The
// same quoted string doubles as the run.cmd breadcrumb.
func buildLaunch(entryPath, inputPath, runDir string) (*exec.Cmd, string) {
	quoted := shellquote.Join(entryPath, inputPath, runDir)
	cmd := exec.Command("sh", "-c", quoted)
	return cmd, quoted
}

// afterStart moves the child into its own process group so it isn't
// orphaned onto the caller's terminal if this process is killed while
// the plugin is still running.
func afterStart(cmd *exec.Cmd) error {
	return unix.Setpgid(cmd.Process.Pid, cmd.Process.Pid)
}
