package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/config"
	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/internal/daemon/collector"
	"github.com/grovetools/swarmstat/internal/daemon/engine"
	"github.com/grovetools/swarmstat/internal/daemon/pidfile"
	"github.com/grovetools/swarmstat/internal/daemon/server"
	"github.com/grovetools/swarmstat/internal/daemon/store"
	"github.com/grovetools/swarmstat/logging"
	"github.com/grovetools/swarmstat/pkg/daemon"
	"github.com/grovetools/swarmstat/pkg/paths"
	"github.com/grovetools/swarmstat/pkg/profiling"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewServeCmd returns the serve command with its status and stop subcommands.
func NewServeCmd() *cobra.Command {
	var (
		addr    string
		watches []string
		noPid   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics HTTP API",
		Long: `Serve the analytics HTTP API in the foreground. While it runs, the other
swarmstat commands send their queries to it.

Trees named with --watch are rebuilt whenever their session files change, and
the configuration files are watched so threshold edits apply without a restart.`,
		Example: `swarmstat serve
swarmstat serve --addr 127.0.0.1:4000 --watch proj_123/ses_abc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			targets, err := parseWatchTargets(watches)
			if err != nil {
				return err
			}
			logger := logging.NewLogger("serve")

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			bound := listener.Addr().String()

			pidPath := paths.PidFilePath()
			if !noPid {
				if err := pidfile.Acquire(pidPath, bound); err != nil {
					_ = listener.Close()
					return fmt.Errorf("failed to start: %w", err)
				}
				defer func() {
					if err := pidfile.Release(pidPath); err != nil {
						logger.Errorf("Failed to release pidfile: %v", err)
					}
				}()
			}

			client, err := daemon.NewLocal(cfg, logger)
			if err != nil {
				_ = listener.Close()
				return err
			}
			defer client.Close()

			st := store.New()
			eng := engine.New(st, logger)
			eng.Register(collector.NewProjectCollector(client, 0, logger))
			for _, t := range targets {
				eng.Register(newTreeCollector(client, cfg, t, logger))
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if len(cfg.Sources) > 0 {
				watcher, err := daemon.NewConfigWatcher(cfg.Sources, cfg.WatchDebounce(), logger, func(file string) {
					next, err := cli.LoadConfig(cmd)
					if err != nil {
						logger.WithError(err).Warn("Ignoring invalid configuration")
						return
					}
					if err := client.Reconfigure(next); err != nil {
						logger.WithError(err).Warn("Failed to apply configuration")
						return
					}
					st.BroadcastConfigReload(file)
				})
				if err != nil {
					logger.WithError(err).Warn("Config hot-reload disabled")
				} else {
					defer watcher.Close()
					go watcher.Start(ctx)
				}
			}

			srv := server.New(client, logger)
			srv.SetEngine(eng)
			srv.SetRunningConfig(&server.RunningConfig{
				Addr:        bound,
				Backend:     cfg.Storage.Backend,
				Watching:    watches,
				ConfigFiles: cfg.Sources,
				StartedAt:   time.Now(),
			})

			// collectors run concurrently; keep them off the global span stack
			go eng.Start(profiling.WithProfiler(ctx, &profiling.Profiler{}))
			go func() {
				<-ctx.Done()
				logger.Info("Received stop signal")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}
			}()

			logger.WithField("pid", os.Getpid()).Info("Starting server")
			if err := srv.Serve(listener); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	cmd.Flags().StringArrayVar(&watches, "watch", nil, "Keep <project>/<session> rebuilt on file changes (repeatable)")
	cmd.Flags().BoolVar(&noPid, "no-pid", false, "Do not write the pid file; other commands will not find this server")

	cmd.AddCommand(newServeStatusCmd(), newServeStopCmd())
	return cmd
}

type watchTarget struct {
	project, session string
}

func parseWatchTargets(values []string) ([]watchTarget, error) {
	targets := make([]watchTarget, 0, len(values))
	for _, v := range values {
		p, s, ok := strings.Cut(v, "/")
		if !ok || p == "" || s == "" || strings.Contains(s, "/") {
			return nil, swerrors.InvalidInput("watch", fmt.Sprintf("%q is not <project>/<session>", v))
		}
		targets = append(targets, watchTarget{project: p, session: s})
	}
	return targets, nil
}

// newTreeCollector watches the storage files of the tree when the store
// is the opencode directory and falls back to interval rebuilds otherwise.
func newTreeCollector(a collector.Analyzer, cfg *config.Config, t watchTarget, logger *logrus.Entry) *collector.TreeCollector {
	opts := []collector.TreeOption{
		collector.WithInterval(cfg.WatchInterval()),
		collector.WithDebounce(cfg.WatchDebounce()),
		collector.WithTreeLogger(logger),
	}
	if cfg.Storage.Backend == config.BackendFile {
		opts = append(opts, collector.WithStorageRoot(cfg.Storage.Root))
	}
	return collector.NewTreeCollector(a, t.project, t.session, opts...)
}

func newServeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether a server is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			running, info, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			responding := false
			if running && info.Addr != "" {
				remote := daemon.NewRemoteClient(info.Addr)
				responding = remote.IsRunning()
				_ = remote.Close()
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				status := map[string]interface{}{"running": running, "responding": responding}
				if running {
					status["pid"] = info.PID
					status["addr"] = info.Addr
					status["startedAt"] = info.StartedAt
				}
				return cli.PrintJSON(out, status)
			}

			pretty := logging.NewPretty(out)
			if !running {
				pretty.Warn("Stopped")
				// non-zero for scripts
				os.Exit(1)
			}
			pretty.Success("Running")
			pretty.Field("PID", info.PID)
			pretty.Field("Address", info.Addr)
			if !info.StartedAt.IsZero() {
				pretty.Field("Started", info.StartedAt.Local().Format(time.RFC3339))
			}
			pretty.Path("Pidfile", paths.PidFilePath())
			if !responding {
				pretty.Warn("The server is not answering health checks")
			}
			return nil
		},
	}
}

func newServeStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			running, info, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Server is not running")
				return nil
			}

			process, err := os.FindProcess(info.PID)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", info.PID, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}
			logging.NewPretty(cmd.OutOrStdout()).Success("Sent SIGTERM to process %d", info.PID)
			return nil
		},
	}
}
