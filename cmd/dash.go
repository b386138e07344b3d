package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/swarmstat/tui"
	"github.com/grovetools/swarmstat/tui/dash"
	"github.com/spf13/cobra"
)

func NewDashCmd() *cobra.Command {
	var refresh time.Duration
	cmd := &cobra.Command{
		Use:   "dash <project> <session>",
		Short: "Open the interactive dashboard for a session tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			project, session := args[0], args[1]
			load := func(ctx context.Context) (*dash.Snapshot, error) {
				a, err := e.client.Analyze(ctx, project, session)
				if err != nil {
					return nil, err
				}
				return dash.NewSnapshot(a.Tree, a.Findings), nil
			}

			tui.InitializeTUI()
			var opts []dash.Option
			if refresh > 0 {
				opts = append(opts, dash.WithRefreshInterval(refresh))
			}
			p := tea.NewProgram(dash.New(load, opts...), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&refresh, "refresh", 5*time.Second, "Reload interval, 0 to reload only on demand")
	return cmd
}
