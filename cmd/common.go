package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/config"
	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/daemon"
	"github.com/spf13/cobra"
)

// env is what a command needs to answer a query.
type env struct {
	cfg    *config.Config
	client daemon.Client
	opts   cli.CommandOptions
}

// newEnv loads the configuration and picks a client.
func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	local, _ := cmd.Flags().GetBool("local")
	client, err := daemon.New(cfg, cli.GetLogger(cmd), daemon.Options{Local: local})
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, client: client, opts: cli.GetOptions(cmd)}, nil
}

func (e *env) Close() error {
	return e.client.Close()
}

// analyze returns the analysis of an existing tree or SESSION_NOT_FOUND.
func (e *env) analyze(ctx context.Context, projectID, sessionID string) (*daemon.Analysis, error) {
	a, err := e.client.Analyze(ctx, projectID, sessionID)
	if err != nil {
		return nil, err
	}
	if !a.Found() {
		return nil, swerrors.SessionNotFound(projectID, sessionID)
	}
	return a, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func formatTime(ms int64) string {
	if ms == 0 {
		return "—"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func formatDuration(d *int64) string {
	if d == nil {
		return "—"
	}
	return analysis.FormatDuration(*d)
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
