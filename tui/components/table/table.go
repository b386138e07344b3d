// Package table renders themed lipgloss tables for CLI output.
package table

import (
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/grovetools/swarmstat/tui/theme"
)

// Options provides additional configuration for the table
type Options struct {
	Bordered      bool
	AlternateRows bool
	// RightAlign lists column indexes rendered right-aligned (numbers).
	RightAlign []int
	Theme      *theme.Theme
}

// DefaultOptions returns the default table options
func DefaultOptions() Options {
	return Options{
		Bordered:      true,
		AlternateRows: theme.DefaultTheme.UseAlternatingRows,
		Theme:         theme.DefaultTheme,
	}
}

// Builder provides a fluent interface for creating styled tables
type Builder struct {
	headers []string
	rows    [][]string
	options Options
}

// NewBuilder creates a new table builder
func NewBuilder() *Builder {
	return &Builder{options: DefaultOptions()}
}

func (b *Builder) WithTheme(t *theme.Theme) *Builder {
	b.options.Theme = t
	return b
}

func (b *Builder) WithBorder(bordered bool) *Builder {
	b.options.Bordered = bordered
	return b
}

func (b *Builder) WithAlternateRows(alternate bool) *Builder {
	b.options.AlternateRows = alternate
	return b
}

// WithRightAlign right-aligns the given columns.
func (b *Builder) WithRightAlign(cols ...int) *Builder {
	b.options.RightAlign = append(b.options.RightAlign, cols...)
	return b
}

func (b *Builder) WithHeaders(headers ...string) *Builder {
	b.headers = headers
	return b
}

func (b *Builder) WithRows(rows ...[]string) *Builder {
	b.rows = append(b.rows, rows...)
	return b
}

// Build creates the styled table. Headers are styled separately by
// lipgloss, so row indexes in the style func start at the first data row.
func (b *Builder) Build() *ltable.Table {
	t := b.options.Theme
	if t == nil {
		t = theme.DefaultTheme
	}
	right := make(map[int]bool, len(b.options.RightAlign))
	for _, c := range b.options.RightAlign {
		right[c] = true
	}

	table := ltable.New()
	if b.options.Bordered {
		table = table.
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(t.Colors.Border))
	} else {
		table = table.Border(lipgloss.HiddenBorder())
	}

	table = table.StyleFunc(func(row, col int) lipgloss.Style {
		if row == ltable.HeaderRow {
			return t.TableHeader
		}
		style := t.TableRow
		if b.options.AlternateRows && row%2 == 1 {
			style = style.Background(t.Colors.SubtleBackground)
		}
		if right[col] {
			style = style.Align(lipgloss.Right)
		}
		return style
	})

	if len(b.headers) > 0 {
		table = table.Headers(b.headers...)
	}
	for _, r := range b.rows {
		table = table.Row(r...)
	}
	return table
}

// SimpleTable creates a basic table with headers and rows
func SimpleTable(headers []string, rows [][]string) string {
	return NewBuilder().
		WithHeaders(headers...).
		WithRows(rows...).
		Build().
		String()
}

// StatusTable renders label/value pairs without borders.
func StatusTable(items [][]string) string {
	b := NewBuilder().
		WithBorder(false).
		WithAlternateRows(false)

	for _, item := range items {
		if len(item) >= 2 {
			b.WithRows([]string{theme.DefaultTheme.Muted.Render(item[0] + ":"), item[1]})
		}
	}
	return b.Build().String()
}
