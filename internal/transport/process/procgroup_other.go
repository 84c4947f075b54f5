//go:build !unix

package process

import "os/exec"

// setProcessGroup is a no-op; exec.CommandContext kills the direct child and
// WaitDelay bounds the wait for its pipes.
func setProcessGroup(*exec.Cmd) {}
