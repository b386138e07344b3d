package command

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 30 * time.Second

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 5 * time.Minute
)

var (
	agentNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
	modelIDPattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:@-]*(/[A-Za-z0-9_.:@-]+)+$`)
)

// SafeBuilder builds validated commands for external tools such as the
// opencode CLI.
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"agentName": validateAgentName,
		"modelID":   validateModelID,
		"binary":    validateBinary,
	}
}

// validateAgentName accepts agent definition names (file stem of agents/*.md).
func validateAgentName(name string) error {
	if name == "" {
		return fmt.Errorf("agent name cannot be empty")
	}
	if !agentNamePattern.MatchString(name) {
		return fmt.Errorf("invalid agent name: %s", name)
	}
	return nil
}

// validateModelID accepts provider/model identifiers as listed by
// `opencode models`.
func validateModelID(id string) error {
	if id == "" {
		return fmt.Errorf("model id cannot be empty")
	}
	if !modelIDPattern.MatchString(id) {
		return fmt.Errorf("invalid model id: %s (expected provider/model)", id)
	}
	return nil
}

// validateBinary ensures an executable path carries no shell metacharacters.
func validateBinary(path string) error {
	if path == "" {
		return fmt.Errorf("binary path cannot be empty")
	}
	if strings.ContainsAny(path, ";|&$`\n") {
		return fmt.Errorf("binary path contains invalid characters")
	}
	return nil
}

// Command represents a safe command configuration
type Command struct {
	parent   context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command bound to ctx with the default timeout.
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	if err := validateBinary(name); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, sb.defaultTimeout)
	return &Command{
		parent:   ctx,
		ctx:      timeoutCtx,
		cancel:   cancel,
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	c.cancel()
	c.ctx, c.cancel = context.WithTimeout(c.parent, timeout)
	c.timeout = timeout
	return c
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Exec creates and returns an exec.Cmd. The caller must call Release once
// the command has finished.
func (c *Command) Exec() *exec.Cmd {
	return c.executor.CommandContext(c.ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
}

// Release frees the command's timeout context.
func (c *Command) Release() {
	c.cancel()
}

// Output runs the command and returns its stdout.
func (c *Command) Output() ([]byte, error) {
	defer c.Release()
	out, err := c.Exec().Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s failed: %w: %s", c.name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s failed: %w", c.name, err)
	}
	return out, nil
}
