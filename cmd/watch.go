package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/internal/daemon/engine"
	"github.com/grovetools/swarmstat/internal/daemon/store"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/daemon"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/spf13/cobra"
)

func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <project> <session>",
		Short: "Print a line each time a session tree changes",
		Long: `Rebuild the tree whenever its session files change and print one line per
new revision. With --json every revision is printed as a JSON object on its
own line. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := cli.GetLogger(cmd)
			client, err := daemon.NewLocal(cfg, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			st := store.New()
			eng := engine.New(st, logger)
			eng.Register(newTreeCollector(client, cfg, watchTarget{project: args[0], session: args[1]}, logger))

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			updates := st.Subscribe()
			defer st.Unsubscribe(updates)
			go eng.Start(ctx)

			out := cmd.OutOrStdout()
			asJSON := cli.GetOptions(cmd).JSONOutput
			for {
				select {
				case <-ctx.Done():
					return nil
				case u, ok := <-updates:
					if !ok {
						return nil
					}
					entry, isTree := u.Payload.(*store.Entry)
					if u.Type != store.UpdateTree || !isTree {
						continue
					}
					if err := printRevision(out, entry, asJSON); err != nil {
						return err
					}
				}
			}
		},
	}
}

type revisionLine struct {
	Revision  int              `json:"revision"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Found     bool             `json:"found"`
	Summary   analysis.Summary `json:"summary"`
	Findings  []models.Finding `json:"findings"`
}

func printRevision(w io.Writer, e *store.Entry, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(revisionLine{
			Revision:  e.Revision,
			UpdatedAt: e.UpdatedAt,
			Found:     e.Tree != nil,
			Summary:   e.Summary,
			Findings:  e.Findings,
		})
	}

	stamp := e.UpdatedAt.Local().Format("15:04:05")
	if e.Tree == nil {
		_, err := fmt.Fprintf(w, "%s  rev %d  session not found\n", stamp, e.Revision)
		return err
	}
	s := e.Summary
	counts := analysis.CountBySeverity(e.Findings)
	_, err := fmt.Fprintf(w, "%s  rev %d  %d sessions  %d msgs  %s tokens  ratio %s  findings %d/%d/%d\n",
		stamp, e.Revision, s.Sessions, s.Messages, analysis.FormatTokens(s.Tokens), analysis.FormatRatio(s.TokenRatio),
		counts[models.SeveritySevere], counts[models.SeverityWarn], counts[models.SeverityInfo])
	return err
}
