package dash

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/tui/theme"
	"github.com/grovetools/swarmstat/tui/utils/scrollbar"
)

func columns(width int) []table.Column {
	fixed := []table.Column{
		{Title: "Agent", Width: 14},
		{Title: "Msgs", Width: 5},
		{Title: "Diffs", Width: 5},
		{Title: "Tokens", Width: 8},
		{Title: "Ratio", Width: 7},
		{Title: "Time", Width: 8},
	}
	used := 0
	for _, c := range fixed {
		used += c.Width + 2
	}
	session := max(20, width-used-2)
	return append([]table.Column{{Title: "Session", Width: session}}, fixed...)
}

func treeRows(root *models.Node) []table.Row {
	if root == nil {
		return nil
	}
	flat := analysis.Flatten(root)
	rows := make([]table.Row, 0, len(flat))
	for _, n := range flat {
		title := n.Title
		if title == "" {
			title = n.ID
		}
		agent := n.Agent
		if agent == "" {
			agent = "-"
		}
		dur := int64(0)
		if n.Duration != nil {
			dur = *n.Duration
		}
		rows = append(rows, table.Row{
			strings.Repeat("  ", n.Depth) + title,
			agent,
			fmt.Sprint(n.Messages),
			fmt.Sprint(n.Diffs),
			analysis.FormatTokens(n.Tokens),
			analysis.FormatRatio(analysis.TokenRatio(n.Tokens.Total(), n.DiffTokens)),
			analysis.FormatDuration(dur),
		})
	}
	return rows
}

func (m *Model) renderFindings() string {
	if m.snap == nil || len(m.snap.Findings) == 0 {
		return m.theme.Success.Render("No waste detected.")
	}
	var b strings.Builder
	for _, f := range analysis.SortBySeverity(m.snap.Findings) {
		label := fmt.Sprintf("[%s]", strings.ToUpper(string(f.Severity)))
		b.WriteString(theme.RenderSeverity(string(f.Severity), label))
		b.WriteString(" " + m.theme.Bold.Render(f.Title))
		if f.Agent != "" {
			b.WriteString(m.theme.Muted.Render(" @" + f.Agent))
		}
		b.WriteString("\n    " + f.Detail + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) header() string {
	t := m.theme
	if m.snap == nil || m.snap.Tree == nil {
		return t.Header.Render("swarmstat")
	}
	s := m.snap.Summary
	title := s.Title
	if title == "" {
		title = s.RootID
	}
	dur := int64(0)
	if s.Duration != nil {
		dur = *s.Duration
	}
	counts := analysis.CountBySeverity(m.snap.Findings)
	stats := []string{
		fmt.Sprintf("%d sessions", s.Sessions),
		fmt.Sprintf("%d msgs", s.Messages),
		fmt.Sprintf("%d diffs", s.Diffs),
		analysis.FormatTokens(s.Tokens) + " tok",
		"ratio " + analysis.FormatRatio(s.TokenRatio),
		analysis.FormatDuration(dur),
		fmt.Sprintf("%d human", s.HumanInputs),
	}
	findings := fmt.Sprintf("%s %s %s",
		theme.RenderSeverity("severe", fmt.Sprintf("%d severe", counts[models.SeveritySevere])),
		theme.RenderSeverity("warn", fmt.Sprintf("%d warn", counts[models.SeverityWarn])),
		theme.RenderSeverity("info", fmt.Sprintf("%d info", counts[models.SeverityInfo])),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		t.Header.Render(title),
		t.Muted.Render(strings.Join(stats, " | ")),
		findings,
	)
}

// View renders the dashboard.
func (m *Model) View() string {
	if m.help.ShowAll {
		return m.help.View()
	}
	t := m.theme

	var status string
	switch {
	case m.loading:
		status = m.spinner.View() + " loading..."
	case m.err != nil:
		status = t.Error.Render("error: " + m.err.Error())
	case m.snap == nil || m.snap.Tree == nil:
		status = t.Warning.Render("session not found")
	}

	treeTitle := t.Muted.Render("Sessions")
	findTitle := t.Muted.Render("Findings")
	if m.focus == PaneTree {
		treeTitle = t.Accent.Render("Sessions")
	} else {
		findTitle = t.Accent.Render("Findings")
	}

	parts := []string{m.header()}
	if status != "" {
		parts = append(parts, status)
	}
	parts = append(parts,
		"",
		treeTitle,
		m.table.View(),
		"",
		findTitle,
		scrollbar.Overlay(&m.findings),
		m.help.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
