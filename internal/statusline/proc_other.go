//go:build !unix

package statusline

import "os/exec"

// configureProcess keeps exec.CommandContext's default of killing the
// process on cancellation; process groups are unix-only.
func configureProcess(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
