package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grovetools/swarmstat/tui/components/table"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalWidth returns the width of w, or fallback when it is not a
// terminal.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTable renders a themed table on a terminal and tab-separated
// values otherwise, so output pipes cleanly into cut and awk.
func PrintTable(w io.Writer, headers []string, rows [][]string, rightAlign ...int) error {
	if !IsTerminal(w) {
		return PrintTSV(w, headers, rows)
	}
	t := table.NewBuilder().
		WithHeaders(headers...).
		WithRows(rows...).
		WithRightAlign(rightAlign...).
		Build()
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// PrintTSV writes headers and rows separated by tabs. Tabs and newlines
// inside cells are replaced by spaces.
func PrintTSV(w io.Writer, headers []string, rows [][]string) error {
	clean := strings.NewReplacer("\t", " ", "\n", " ")
	write := func(cells []string) error {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = clean.Replace(c)
		}
		_, err := fmt.Fprintln(w, strings.Join(out, "\t"))
		return err
	}
	if err := write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		if err := write(r); err != nil {
			return err
		}
	}
	return nil
}
