package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/swarmstat/tui/theme"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	maxHelpWidth = 72
	minHelpWidth = 40
)

// SetStyledHelp installs the themed help on cmd only.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		newHelpWriter(c.OutOrStdout(), helpWidth()).render(c)
	})
	// errors are reported by ErrorHandler; usage is not repeated
	cmd.SetUsageFunc(func(*cobra.Command) error { return nil })
}

// ApplyStyledHelpRecursive installs the themed help on cmd and every
// subcommand. Call it after all subcommands are added.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	SetStyledHelp(cmd)
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

func helpWidth() int {
	width := TerminalWidth(os.Stdout, maxHelpWidth)
	if width < minHelpWidth {
		return maxHelpWidth
	}
	return min(width, maxHelpWidth)
}

type helpWriter struct {
	w     io.Writer
	width int
	t     *theme.Theme

	title   lipgloss.Style
	section lipgloss.Style
	name    lipgloss.Style
	flag    lipgloss.Style
	sub     lipgloss.Style
	italic  lipgloss.Style
}

func newHelpWriter(w io.Writer, width int) *helpWriter {
	t := theme.DefaultTheme
	return &helpWriter{
		w:       w,
		width:   width - 2,
		t:       t,
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Orange),
		section: lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange),
		name:    lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Cyan),
		flag:    lipgloss.NewStyle().Foreground(t.Colors.Violet),
		sub:     lipgloss.NewStyle().Foreground(t.Colors.Green),
		italic:  lipgloss.NewStyle().Italic(true),
	}
}

func (h *helpWriter) line(s string) {
	fmt.Fprintln(h.w, " "+s)
}

func (h *helpWriter) heading(s string) {
	fmt.Fprintln(h.w)
	h.line(h.section.Render(s))
}

func (h *helpWriter) render(cmd *cobra.Command) {
	h.line(h.title.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := splitExamples(cmd.Long)
	for _, l := range strings.Split(wrapText(cmd.Short, h.width), "\n") {
		h.line(h.italic.Render(l))
	}
	if description != "" && description != cmd.Short {
		fmt.Fprintln(h.w)
		for _, l := range strings.Split(wrapText(description, h.width), "\n") {
			h.line(l)
		}
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		h.heading("USAGE")
		if cmd.Runnable() {
			h.line(cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			h.line(cmd.CommandPath() + " [command]")
		}
	}

	h.commands(cmd)
	h.flags(cmd)

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		h.heading("EXAMPLES")
		h.examples(examples, strings.Fields(cmd.CommandPath())[0])
	}

	if cmd.HasSubCommands() {
		fmt.Fprintf(h.w, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func (h *helpWriter) commands(cmd *cobra.Command) {
	var subs []*cobra.Command
	width := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			subs = append(subs, sub)
			width = max(width, len(sub.Name()))
		}
	}
	if len(subs) == 0 {
		return
	}
	h.heading("COMMANDS")
	for _, sub := range subs {
		h.line(h.name.Render(sub.Name()) + strings.Repeat(" ", width-len(sub.Name())) + "  " + sub.Short)
	}
}

// flags lists the local flags in detail on leaf commands and inline on
// parent commands.
func (h *helpWriter) flags(cmd *cobra.Command) {
	var visible []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			visible = append(visible, f)
		}
	})
	if len(visible) == 0 {
		return
	}

	if cmd.HasAvailableSubCommands() {
		names := make([]string, len(visible))
		for i, f := range visible {
			names[i] = strings.TrimSpace(flagName(f))
		}
		fmt.Fprintln(h.w)
		h.line(h.t.Muted.Render("Flags: " + strings.Join(names, ", ")))
		return
	}

	h.heading("FLAGS")
	width := 0
	for _, f := range visible {
		width = max(width, len(flagName(f)))
	}
	for _, f := range visible {
		name := flagName(f)
		usage, choices := splitChoices(f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" && f.DefValue != "0" {
			usage += h.t.Muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		h.line(h.flag.Render(name) + strings.Repeat(" ", width-len(name)) + "  " + usage)
		for _, c := range choices {
			h.line(strings.Repeat(" ", width+2) + h.t.Muted.Render("• "+c))
		}
	}
}

// examples styles comment lines muted and colors the command, subcommand
// and flags of each example line.
func (h *helpWriter) examples(text, root string) {
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		switch {
		case l == "":
			fmt.Fprintln(h.w)
		case strings.HasPrefix(l, "#"):
			h.line(h.t.Muted.Render(l))
		default:
			h.line("  " + h.styleExample(l, root))
		}
	}
}

func (h *helpWriter) styleExample(l, root string) string {
	parts := strings.Fields(l)
	for i, p := range parts {
		switch {
		case i == 0 && p == root:
			parts[i] = h.name.Render(p)
		case strings.HasPrefix(p, "-"):
			parts[i] = h.flag.Render(p)
		case i == 1:
			parts[i] = h.sub.Render(p)
		}
	}
	return strings.Join(parts, " ")
}

func flagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "    --" + f.Name
}

// splitExamples separates an "Examples:" block from a long description.
func splitExamples(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if i := strings.Index(long, marker); i != -1 {
			return strings.TrimSpace(long[:i]), strings.TrimSpace(long[i+len(marker):])
		}
	}
	return strings.TrimSpace(long), ""
}

// splitChoices pulls an inline list of three or more choices out of a flag
// usage such as "Lowest severity shown: info, warn, severe".
func splitChoices(usage string) (string, []string) {
	i := strings.Index(usage, ": ")
	if i == -1 {
		return usage, nil
	}
	list, suffix := usage[i+2:], ""
	if j := strings.Index(list, " ("); j != -1 {
		list, suffix = list[:j], list[j:]
	}
	parts := strings.Split(list, ", ")
	if len(parts) < 3 {
		return usage, nil
	}
	for k, p := range parts {
		parts[k] = strings.TrimSpace(strings.TrimPrefix(p, "or "))
	}
	return usage[:i+1] + suffix, parts
}

// wrapText wraps each paragraph of text at width.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxHelpWidth
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		if len(para) <= width {
			out = append(out, para)
			continue
		}
		var line string
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
