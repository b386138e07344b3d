package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/swarmstat/tui/theme"
)

// Pretty writes user-facing status lines, as opposed to the structured
// component logs.
type Pretty struct {
	w    io.Writer
	t    *theme.Theme
	path lipgloss.Style
}

// NewPretty returns a status writer styled with the active theme.
func NewPretty(w io.Writer) *Pretty {
	t := theme.DefaultTheme
	return &Pretty{
		w:    w,
		t:    t,
		path: lipgloss.NewStyle().Foreground(t.Colors.Cyan).Italic(true),
	}
}

func (p *Pretty) status(icon string, style lipgloss.Style, msg string) {
	fmt.Fprintf(p.w, "%s %s\n", style.Render(icon), style.Render(msg))
}

func (p *Pretty) Success(format string, args ...any) {
	p.status(theme.IconSuccess, p.t.Success, fmt.Sprintf(format, args...))
}

func (p *Pretty) Warn(format string, args ...any) {
	p.status(theme.IconWarning, p.t.Warning, fmt.Sprintf(format, args...))
}

// Error prints msg followed by err when non-nil.
func (p *Pretty) Error(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	p.status(theme.IconError, p.t.Error, msg)
}

// Field prints an aligned key: value line.
func (p *Pretty) Field(key string, value any) {
	fmt.Fprintf(p.w, "%s: %s\n", p.t.Muted.Render(key), p.t.Highlight.Render(fmt.Sprint(value)))
}

func (p *Pretty) Path(label, path string) {
	fmt.Fprintf(p.w, "%s: %s\n", p.t.Muted.Render(label), p.path.Render(path))
}
