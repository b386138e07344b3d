// Package tui holds terminal setup shared by the dashboard and the agent
// model picker.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI forces a color profile when the environment asks for one
// (CLICOLOR_FORCE=1, COLORTERM=truecolor) and disables color under NO_COLOR.
// Call it before any style is rendered.
func InitializeTUI() {
	switch {
	case os.Getenv("NO_COLOR") != "":
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
