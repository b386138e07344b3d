package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. Tests substitute one that points at
// a stub binary instead of the real opencode CLI.
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor runs commands through os/exec.
type RealExecutor struct{}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// EnvExecutor runs commands with extra environment variables appended.
type EnvExecutor struct {
	Env []string
}

// CommandContext creates a context-aware exec.Cmd carrying e.Env.
func (e *EnvExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	return cmd
}
