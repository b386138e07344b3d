package cmd

import (
	"fmt"

	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/config"
	"github.com/grovetools/swarmstat/logging"
	"github.com/grovetools/swarmstat/pkg/paths"
	"github.com/grovetools/swarmstat/pkg/storage"
	"github.com/spf13/cobra"
)

func NewImportCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "import [project...]",
		Short: "Copy opencode storage into a SQLite snapshot",
		Long: `Copy sessions, messages and tool parts from the opencode storage directory
into a SQLite snapshot. Without arguments every project is imported. Rows
that already exist are replaced, so re-running refreshes the snapshot.

Point storage.backend at "sqlite" to query the snapshot afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := cli.GetLogger(cmd)

			if dbPath == "" {
				dbPath = cfg.Storage.SQLitePath
			}
			if dbPath == "" {
				dbPath = paths.SnapshotPath()
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			src, err := storage.Open(&config.StorageConfig{Backend: config.BackendFile, Root: cfg.Storage.Root}, logger)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := storage.OpenSQLite(dbPath, logger)
			if err != nil {
				return err
			}
			defer dst.Close()

			projects := args
			if len(projects) == 0 {
				listed, err := src.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				for _, p := range listed {
					projects = append(projects, p.ID)
				}
			}

			out := cmd.OutOrStdout()
			opts := cli.GetOptions(cmd)
			progress := cli.NewProgressReporter(out)
			var total storage.ImportStats
			var failed int
			for _, id := range projects {
				if !opts.JSONOutput {
					progress.Update(id, "started")
				}
				stats, err := dst.Import(cmd.Context(), src, id)
				if err != nil {
					failed++
					logger.WithError(err).WithField("project", id).Error("Import failed")
					if !opts.JSONOutput {
						progress.Update(id, "failed")
					}
					continue
				}
				total.Projects += stats.Projects
				total.Sessions += stats.Sessions
				total.Messages += stats.Messages
				total.Parts += stats.Parts
				if !opts.JSONOutput {
					progress.Update(id, "completed")
				}
			}

			if opts.JSONOutput {
				if err := cli.PrintJSON(out, map[string]interface{}{"db": dst.Path(), "stats": total, "failed": failed}); err != nil {
					return err
				}
			} else {
				progress.Done()
				logging.NewPretty(out).Success("Imported %d projects, %d sessions, %d messages, %d parts into %s",
					total.Projects, total.Sessions, total.Messages, total.Parts, dst.Path())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d projects failed to import", failed, len(projects))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Snapshot database path (default: storage.sqlite_path or the state directory)")
	return cmd
}
