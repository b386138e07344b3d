package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/logging"
	"github.com/grovetools/swarmstat/pkg/agents"
	"github.com/grovetools/swarmstat/tui"
	"github.com/grovetools/swarmstat/tui/agentpicker"
	"github.com/spf13/cobra"
)

func NewAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List opencode agents and the models they run on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			list, err := agents.List(cfg.Agents.Dir)
			if err != nil {
				return err
			}
			if cli.GetOptions(cmd).JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list))
			for _, a := range list {
				model := a.Model
				if model == "" {
					model = "(default)"
				}
				rows = append(rows, []string{a.Name, model, a.File})
			}
			return cli.PrintTable(cmd.OutOrStdout(), []string{"AGENT", "MODEL", "FILE"}, rows)
		},
	}
	cmd.AddCommand(newAgentsEditCmd(), newAgentsSetCmd())
	return cmd
}

func newAgentsEditCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Pick new models for agents interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			list, err := agents.List(cfg.Agents.Dir)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("no agent definitions found in %s", cfg.Agents.Dir)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			available, err := agents.NewModelLister(cfg.Agents.Opencode).ListModels(ctx)
			cancel()
			if err != nil {
				return err
			}

			tui.InitializeTUI()
			picker := agentpicker.New(list, available)
			if _, err := tea.NewProgram(picker, tea.WithAltScreen()).Run(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			changes := picker.Changes()
			if !picker.Saved || len(changes) == 0 {
				fmt.Fprintln(out, "No changes.")
				return nil
			}
			return applyChanges(cmd, changes, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the changes without writing them")
	return cmd
}

func newAgentsSetCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:     "set <model> <agent>...",
		Short:   "Assign a model to agents",
		Example: `swarmstat agents set anthropic/claude-sonnet-4 coder reviewer`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			list, err := agents.List(cfg.Agents.Dir)
			if err != nil {
				return err
			}
			changes := make([]agents.Change, 0, len(args)-1)
			for _, name := range args[1:] {
				a, ok := agents.Find(list, name)
				if !ok {
					return fmt.Errorf("agent %q not found in %s", name, cfg.Agents.Dir)
				}
				changes = append(changes, agents.Change{Agent: a, Model: args[0]})
			}
			return applyChanges(cmd, changes, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the changes without writing them")
	return cmd
}

func applyChanges(cmd *cobra.Command, changes []agents.Change, dryRun bool) error {
	out := cmd.OutOrStdout()
	if dryRun {
		for _, c := range changes {
			fmt.Fprintln(out, c.Describe())
		}
		return nil
	}
	n, err := agents.Apply(changes)
	if err != nil {
		return err
	}
	logging.NewPretty(out).Success("Updated %d agent(s).", n)
	return nil
}
