// Package report renders aggregated session trees as markdown for humans
// and for language-model consumption.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
)

// NoData is returned for a tree that could not be built.
const NoData = "No session data available."

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

// AIReport renders the full analytics report: summary, session tree,
// per-agent and per-tool usage, the event timeline, findings and a short
// interpretation guide. Sections without data are omitted.
func AIReport(tree *models.Node, findings []models.Finding) string {
	if tree == nil {
		return NoData
	}
	flat := analysis.Flatten(tree)
	sum := analysis.Summarize(tree)

	var b strings.Builder
	b.WriteString("# Swarm Session Analytics Report\n\n")

	duration := int64(0)
	if tree.Duration != nil {
		duration = *tree.Duration
	}
	b.WriteString("<session_summary>\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", titleOf(tree))
	fmt.Fprintf(&b, "  <sessions>%d</sessions>\n", sum.Sessions)
	fmt.Fprintf(&b, "  <messages>%d</messages>\n", sum.Messages)
	fmt.Fprintf(&b, "  <diffs>%d</diffs>\n", sum.Diffs)
	fmt.Fprintf(&b, "  <input_tokens>%d</input_tokens>\n", tree.Tokens.Input)
	fmt.Fprintf(&b, "  <output_tokens>%d</output_tokens>\n", tree.Tokens.Output)
	fmt.Fprintf(&b, "  <estimated>%t</estimated>\n", tree.Tokens.Estimated)
	fmt.Fprintf(&b, "  <diff_tokens>%d</diff_tokens>\n", tree.DiffTokens)
	fmt.Fprintf(&b, "  <token_ratio>%d:1</token_ratio>\n", sum.TokenRatio)
	fmt.Fprintf(&b, "  <duration_ms>%d</duration_ms>\n", duration)
	fmt.Fprintf(&b, "  <human_inputs>%d</human_inputs>\n", tree.HumanMessages)
	b.WriteString("</session_summary>\n\n")

	b.WriteString("## Session Tree\n\n")
	b.WriteString("| Session | Agent | Msgs | Diffs | In Tok | Out Tok | Ratio |\n")
	b.WriteString("|---------|-------|------|-------|--------|---------|-------|\n")
	for _, n := range flat {
		agent := n.Agent
		if agent == "" {
			agent = "—"
		}
		fmt.Fprintf(&b, "| %s%s | %s | %d | %d | %d | %d | %s |\n",
			strings.Repeat("  ", n.Depth), rowTitle(n.Node), agent, n.Messages, n.Diffs,
			n.Tokens.Input, n.Tokens.Output,
			analysis.FormatRatio(analysis.TokenRatio(n.Tokens.Total(), n.DiffTokens)))
	}

	b.WriteString("\n## Agent Summary\n\n<agents>\n")
	for _, a := range sum.Agents {
		fmt.Fprintf(&b, "  <agent name=\"%s\" calls=\"%d\" messages=\"%d\" diffs=\"%d\" input_tokens=\"%d\" output_tokens=\"%d\" diff_tokens=\"%d\" ratio=\"%d:1\"/>\n",
			attr(a.Agent), a.Sessions, a.Messages, a.Diffs, a.Tokens.Input, a.Tokens.Output, a.DiffTokens, a.Ratio)
	}
	b.WriteString("</agents>\n")

	writeTools(&b, tree.ToolStats)
	writeTimeline(&b, tree.FlameEvents)
	writeWarnings(&b, findings)

	b.WriteString(interpretationGuide)
	return b.String()
}

func writeTools(b *strings.Builder, stats map[string]models.ToolStats) {
	if len(stats) == 0 {
		return
	}
	names := make([]string, 0, len(stats))
	var totalTokens, totalDuration int64
	for name, s := range stats {
		names = append(names, name)
		totalTokens += s.Tokens()
		totalDuration += s.Duration
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := stats[names[i]].Tokens(), stats[names[j]].Tokens()
		if ti != tj {
			return ti > tj
		}
		return names[i] < names[j]
	})

	fmt.Fprintf(b, "\n## Tool Usage\n\n<tools total_tokens=\"%d\" total_duration_ms=\"%d\">\n", totalTokens, totalDuration)
	for _, name := range names {
		s := stats[name]
		pct := int64(0)
		if totalTokens > 0 {
			pct = percent(s.Tokens(), totalTokens)
		}
		fmt.Fprintf(b, "  <tool name=\"%s\" calls=\"%d\" input_tokens=\"%d\" output_tokens=\"%d\" duration_ms=\"%d\" percent=\"%d\"/>\n",
			attr(name), s.Calls, s.InputTokens, s.OutputTokens, s.Duration, pct)
	}
	b.WriteString("</tools>\n")
}

func writeTimeline(b *strings.Builder, events []models.FlameEvent) {
	if len(events) == 0 {
		return
	}
	minStart := events[0].Start
	var agentTime, toolTime int64
	for _, e := range events {
		minStart = min(minStart, e.Start)
		switch e.Type {
		case models.FlameAgent:
			agentTime += e.End - e.Start
		case models.FlameTool:
			toolTime += e.End - e.Start
		}
	}

	fmt.Fprintf(b, "\n## Timeline\n\n<timeline events=\"%d\" start_ms=\"%d\" agent_time_ms=\"%d\" tool_time_ms=\"%d\">\n",
		len(events), minStart, agentTime, toolTime)
	for _, e := range events {
		fmt.Fprintf(b, "  <event type=\"%s\" name=\"%s\" offset_ms=\"%d\" duration_ms=\"%d\"",
			e.Type, attr(e.Name), e.Start-minStart, e.End-e.Start)
		if e.Type == models.FlameTool {
			if e.Agent != "" {
				fmt.Fprintf(b, " agent=\"%s\"", attr(e.Agent))
			}
			if len(e.Args) > 0 {
				if args, err := json.Marshal(e.Args); err == nil {
					fmt.Fprintf(b, " args=\"%s\"", attr(string(args)))
				}
			}
		}
		b.WriteString("/>\n")
	}
	b.WriteString("</timeline>\n")
}

func writeWarnings(b *strings.Builder, findings []models.Finding) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## Waste Detection\n\n<warnings count=\"%d\">\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(b, "  <warning type=\"%s\" severity=\"%s\"", f.Type, f.Severity)
		if f.Agent != "" {
			fmt.Fprintf(b, " agent=\"%s\"", attr(f.Agent))
		}
		if f.Tool != "" {
			fmt.Fprintf(b, " tool=\"%s\"", attr(f.Tool))
		}
		if f.SessionID != "" {
			fmt.Fprintf(b, " session=\"%s\"", attr(f.SessionID))
		}
		fmt.Fprintf(b, ">%s</warning>\n", f.Detail)
	}
	b.WriteString("</warnings>\n")
}

const interpretationGuide = `
## Interpretation Guide

**Token Ratio**: Total tokens consumed / tokens written to files. Lower is more efficient.
- <10:1 = Excellent efficiency
- 10-30:1 = Normal for complex tasks
- 30-50:1 = Consider optimization
- >50:1 = Significant overhead, investigate

Token counts prefixed with ~ or marked estimated were derived from message sizes
because the provider recorded no usage.

**Severity Levels**:
- severe: Immediate attention needed (wasted compute, excessive iteration)
- warn: Optimization opportunity (low efficiency, abandoned sessions)
- info: Informational (long running, output heavy)

**Common Waste Patterns**:
- abandoned_session: Started but produced nothing
- excessive_iteration: >40 messages indicates thrashing
- wasted_compute: Many messages with zero file output
- low_efficiency: High token overhead for output produced
- duplicate_context: Redundant project-knowledge queries
- deep_delegation: Over-decomposition of tasks
- inefficient_read: Full-file reads without offset/limit (use partial reads)
`

// Context renders a short digest of the tree suitable for a chat prompt.
func Context(tree *models.Node) string {
	if tree == nil {
		return NoData
	}
	sum := analysis.Summarize(tree)

	var b strings.Builder
	fmt.Fprintf(&b, "# Session: %s\n", titleOf(tree))
	fmt.Fprintf(&b, "Sessions: %d | Msgs: %d | Diffs: %d | Tokens: %d | Ratio: %s\n\n",
		sum.Sessions, sum.Messages, sum.Diffs, tree.Tokens.Total(), analysis.FormatRatio(sum.TokenRatio))
	b.WriteString("## Agents\n")
	for _, a := range sum.Agents {
		fmt.Fprintf(&b, "- %s: %d msgs, %d diffs, %d tok\n", a.Agent, a.Messages, a.Diffs, a.Tokens.Total())
	}
	return b.String()
}

// Render formats markdown for the terminal, wrapping at width columns.
func Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return out, nil
}

func titleOf(n *models.Node) string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

func rowTitle(n models.Node) string {
	if n.Title != "" {
		return n.Title
	}
	if len(n.ID) > 8 {
		return n.ID[:8]
	}
	return n.ID
}

func attr(s string) string {
	return attrEscaper.Replace(s)
}

// percent is part/total*100 rounded half up.
func percent(part, total int64) int64 {
	return (part*200 + total) / (total * 2)
}
