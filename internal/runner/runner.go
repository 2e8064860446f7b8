// Package runner provides command execution abstraction for signal sources
// that shell out (e.g. git lookups).
package runner

import (
	"context"
	"os/exec"
)

// Runner executes external commands. Signal sources depend on this
// interface rather than os/exec so tests can script command output.
type Runner interface {
	// Output executes a command in dir and returns its stdout.
	// If dir is empty the current working directory is used.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// Local executes commands on the local machine.
type Local struct{}

// NewLocal creates a new local runner.
func NewLocal() *Local {
	return &Local{}
}

func (r *Local) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	return cmd.Output()
}
