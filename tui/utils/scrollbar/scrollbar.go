// Package scrollbar draws a one-column scrollbar beside a viewport.
package scrollbar

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/grovetools/swarmstat/tui/theme"
)

const (
	thumb = "█"
	track = "░"
)

// Generate returns one scrollbar cell per line of height. The thumb size is
// proportional to the visible share of the content. An empty viewport gets
// blank cells and content that fits gets a full thumb.
func Generate(vp *viewport.Model, height int) []string {
	if height <= 0 {
		return []string{}
	}
	style := theme.DefaultTheme.Muted
	cells := make([]string, height)

	total := vp.TotalLineCount()
	switch {
	case total == 0:
		return fill(cells, style.Render(" "))
	case total <= vp.Height:
		return fill(cells, style.Render(thumb))
	}

	size := max(1, height*vp.Height/total)
	pct := min(max(vp.ScrollPercent(), 0), 1)
	last := height - size
	start := min(max(int(float64(last)*pct+0.5), 0), last)

	for i := range cells {
		if i >= start && i < start+size {
			cells[i] = style.Render(thumb)
		} else {
			cells[i] = style.Render(track)
		}
	}
	return cells
}

func fill(cells []string, s string) []string {
	for i := range cells {
		cells[i] = s
	}
	return cells
}

// Overlay returns the viewport's visible content with a scrollbar cell
// appended to each line.
func Overlay(vp *viewport.Model) string {
	lines := strings.Split(vp.View(), "\n")
	bar := Generate(vp, len(lines))
	for i := range lines {
		lines[i] += bar[i]
	}
	return strings.Join(lines, "\n")
}
