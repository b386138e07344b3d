package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/pkg/swarm"
	"github.com/spf13/cobra"
)

func NewSwarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swarm [dir]",
		Short: "Show the planning artifacts of a project directory",
		Long: `Show the requirements, designs, task lists, context files and validation
reports found under <dir>/.opencode. The directory defaults to the current one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if _, err := os.Stat(abs); err != nil {
				return fmt.Errorf("directory %s: %w", dir, err)
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			artifacts, err := e.client.Swarm(cmd.Context(), abs)
			if err != nil {
				return err
			}
			if e.opts.JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), artifacts)
			}
			return cli.PrintTable(cmd.OutOrStdout(), []string{"KIND", "FILE", "STATUS", "DETAIL"}, swarmRows(artifacts))
		},
	}
}

func swarmRows(a *swarm.Artifacts) [][]string {
	var rows [][]string
	title := func(f swarm.File) string {
		if t, ok := f.Meta["title"].(string); ok && t != "" {
			return truncate(t, 60)
		}
		return truncate(f.Preview, 60)
	}
	for _, f := range a.Requirements {
		status, _ := f.Meta["status"].(string)
		rows = append(rows, []string{"requirement", f.File, status, title(f)})
	}
	for _, f := range a.Designs {
		status, _ := f.Meta["status"].(string)
		rows = append(rows, []string{"design", f.File, status, title(f)})
	}
	for _, t := range a.Tasks {
		rows = append(rows, []string{"tasks", t.File.File, fmt.Sprintf("%d/%d done", t.Done(), len(t.Items)), title(t.File)})
	}
	for _, f := range a.Context {
		rows = append(rows, []string{"context", f.File, "", title(f)})
	}
	for _, v := range a.Validations {
		rows = append(rows, []string{"validation", "task " + v.TaskID, fmt.Sprintf("%d phases", len(v.Phases)), ""})
	}
	return rows
}
