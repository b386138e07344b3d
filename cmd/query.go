package cmd

import (
	"fmt"
	"strings"

	"github.com/grovetools/swarmstat/cli"
	"github.com/grovetools/swarmstat/internal/daemon/collector"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/process"
	"github.com/grovetools/swarmstat/pkg/report"
	"github.com/spf13/cobra"
)

func NewProjectsCmd() *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List opencode projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			projects, err := e.client.Projects(cmd.Context())
			if err != nil {
				return err
			}
			if live {
				infos, err := process.DiscoverOpencode(cmd.Context())
				if err != nil {
					cli.GetLogger(cmd).WithError(err).Warn("Process discovery failed")
				}
				collector.MarkLive(projects, process.LiveDirectories(infos))
			}

			if e.opts.JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), projects)
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				status := ""
				if p.Live {
					status = "live"
				}
				rows = append(rows, []string{p.ID, itoa(p.Sessions), p.Directory, status})
			}
			return cli.PrintTable(cmd.OutOrStdout(), []string{"PROJECT", "SESSIONS", "DIRECTORY", "STATUS"}, rows, 1)
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "Mark projects with a running opencode process")
	return cmd
}

func NewSessionsCmd() *cobra.Command {
	var filter models.SessionFilter
	cmd := &cobra.Command{
		Use:   "sessions <project>",
		Short: "List a project's sessions, newest first",
		Example: `swarmstat sessions proj_123 --roots
swarmstat sessions proj_123 --search parser --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filter.Validate(); err != nil {
				return err
			}
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			sessions, err := e.client.Sessions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sessions = filter.Apply(sessions)

			if e.opts.JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), sessions)
			}
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				parent := s.ParentID
				if parent == "" {
					parent = "—"
				}
				rows = append(rows, []string{s.ID, formatTime(s.Created), parent, truncate(s.Title, 60)})
			}
			return cli.PrintTable(cmd.OutOrStdout(), []string{"SESSION", "CREATED", "PARENT", "TITLE"}, rows)
		},
	}
	cmd.Flags().BoolVar(&filter.RootsOnly, "roots", false, "Only list root sessions")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Case-insensitive match on title or id")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum sessions to list")
	return cmd
}

func NewTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <project> <session>",
		Short: "Show the aggregated session tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			a, err := e.analyze(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if e.opts.JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), a.Tree)
			}
			return cli.PrintTable(cmd.OutOrStdout(),
				[]string{"SESSION", "AGENT", "MSGS", "TOKENS", "DIFF", "RATIO", "DURATION"},
				treeRows(analysis.Flatten(a.Tree)), 2, 3, 4, 5, 6)
		},
	}
}

func treeRows(flat []models.FlatNode) [][]string {
	rows := make([][]string, 0, len(flat))
	for _, n := range flat {
		agent := n.Agent
		if agent == "" {
			agent = models.UnknownAgent
		}
		rows = append(rows, []string{
			strings.Repeat("  ", n.Depth) + truncate(n.Title, 50),
			agent,
			itoa(n.Messages),
			analysis.FormatTokens(n.Tokens),
			analysis.FormatCount(n.DiffTokens),
			analysis.FormatRatio(analysis.TokenRatio(n.Tokens.Total(), n.DiffTokens)),
			formatDuration(n.Duration),
		})
	}
	return rows
}

func NewWasteCmd() *cobra.Command {
	var minSeverity string
	cmd := &cobra.Command{
		Use:   "waste <project> <session>",
		Short: "List wasteful patterns found in a session tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			floor, err := parseSeverity(minSeverity)
			if err != nil {
				return err
			}
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			a, err := e.analyze(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			findings := []models.Finding{}
			for _, f := range analysis.SortBySeverity(a.Findings) {
				if f.Severity.Rank() >= floor.Rank() {
					findings = append(findings, f)
				}
			}

			if e.opts.JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), findings)
			}
			if len(findings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No waste detected.")
				return nil
			}
			rows := make([][]string, 0, len(findings))
			for _, f := range findings {
				rows = append(rows, []string{string(f.Severity), f.Title, f.Subject, f.Detail})
			}
			return cli.PrintTable(cmd.OutOrStdout(), []string{"SEVERITY", "FINDING", "SUBJECT", "DETAIL"}, rows)
		},
	}
	cmd.Flags().StringVar(&minSeverity, "min-severity", "info", "Lowest severity shown: info, warn, severe")
	return cmd
}

func parseSeverity(s string) (models.Severity, error) {
	switch sev := models.Severity(strings.ToLower(s)); sev {
	case models.SeverityInfo, models.SeverityWarn, models.SeveritySevere:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q (want info, warn or severe)", s)
}

func NewSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <project> <session>",
		Short: "Show headline numbers and per-agent totals",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			a, err := e.analyze(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if e.opts.JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), a.Summary)
			}
			return printSummary(cmd, a.Summary, a.Findings)
		},
	}
}

func printSummary(cmd *cobra.Command, s analysis.Summary, findings []models.Finding) error {
	out := cmd.OutOrStdout()
	counts := analysis.CountBySeverity(findings)
	headline := [][]string{
		{"Title", s.Title},
		{"Sessions", itoa(s.Sessions)},
		{"Agent calls", itoa(s.AgentCalls)},
		{"Human inputs", itoa(s.HumanInputs)},
		{"Messages", itoa(s.Messages)},
		{"Diffs", itoa(s.Diffs)},
		{"Distinct agents", itoa(s.DistinctAgents)},
		{"Duration", formatDuration(s.Duration)},
		{"Tokens", analysis.FormatTokens(s.Tokens)},
		{"Diff tokens", analysis.FormatCount(s.DiffTokens)},
		{"Token ratio", analysis.FormatRatio(s.TokenRatio)},
		{"Tool calls", itoa(s.ToolCalls)},
		{"Max depth", itoa(s.MaxDepth)},
		{"Findings", fmt.Sprintf("%d severe, %d warn, %d info",
			counts[models.SeveritySevere], counts[models.SeverityWarn], counts[models.SeverityInfo])},
	}
	if err := cli.PrintTable(out, []string{"METRIC", "VALUE"}, headline); err != nil {
		return err
	}

	if len(s.Agents) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(s.Agents))
		for _, ag := range s.Agents {
			rows = append(rows, []string{
				ag.Agent, itoa(ag.Sessions), itoa(ag.Messages), itoa(ag.Diffs),
				analysis.FormatTokens(ag.Tokens), analysis.FormatRatio(ag.Ratio), analysis.FormatDuration(ag.Duration),
			})
		}
		if err := cli.PrintTable(out, []string{"AGENT", "SESSIONS", "MSGS", "DIFFS", "TOKENS", "RATIO", "DURATION"}, rows, 1, 2, 3, 4, 5, 6); err != nil {
			return err
		}
	}

	if len(s.Files) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(s.Files))
		for _, f := range s.Files {
			rows = append(rows, []string{f.File, fmt.Sprintf("+%d", f.Additions), fmt.Sprintf("-%d", f.Deletions), strings.Join(f.Agents, ", ")})
		}
		return cli.PrintTable(out, []string{"FILE", "ADDED", "DELETED", "AGENTS"}, rows, 1, 2)
	}
	return nil
}

func NewReportCmd() *cobra.Command {
	var render, digest bool
	cmd := &cobra.Command{
		Use:   "report <project> <session>",
		Short: "Print the markdown analytics report",
		Long: `Print the markdown analytics report of a session tree. The report is written
for pasting into a chat with a model; --render formats it for the terminal and
--context prints the short digest instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			var md string
			if digest {
				a, err := e.analyze(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				md = report.Context(a.Tree)
			} else {
				md, err = e.client.Report(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if e.opts.JSONOutput {
				return cli.PrintJSON(out, map[string]string{"project": args[0], "session": args[1], "markdown": md})
			}
			if render {
				rendered, err := report.Render(md, cli.TerminalWidth(out, 100))
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, rendered)
				return err
			}
			_, err = fmt.Fprintln(out, md)
			return err
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Render the markdown for the terminal")
	cmd.Flags().BoolVar(&digest, "context", false, "Print the short chat-context digest")
	return cmd
}
