//go:build !unix

package command

import "os/exec"

// KillGroupOnCancel leaves cmd unchanged; the default context cancellation
// kills the direct child only.
func KillGroupOnCancel(cmd *exec.Cmd) {}
