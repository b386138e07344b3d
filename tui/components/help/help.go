// Package help is the embeddable key-binding help used by the swarmstat
// TUIs: a one-line hint bar and a full, centered overlay toggled with "?".
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/swarmstat/tui/theme"
)

// KeyMap is implemented by every TUI key map.
type KeyMap interface {
	ShortHelp() []key.Binding
	FullHelp() [][]key.Binding
}

// Model represents an embeddable help component
type Model struct {
	Keys    KeyMap
	ShowAll bool
	Width   int
	Height  int
	Theme   *theme.Theme
	Title   string
	// CloseKeys close the overlay in addition to esc.
	CloseKeys []key.Binding

	viewport viewport.Model
}

// New creates a new help model with default settings
func New(keys KeyMap) Model {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = false
	return Model{
		Keys:     keys,
		Theme:    theme.DefaultTheme,
		viewport: vp,
	}
}

// SetSize records the terminal size used to lay out the overlay.
func (m *Model) SetSize(width, height int) {
	m.Width = width
	m.Height = height
	if m.ShowAll {
		m.setViewportContent()
	}
}

// Toggle switches between the hint bar and the full overlay.
func (m *Model) Toggle() {
	m.ShowAll = !m.ShowAll
	if m.ShowAll {
		m.setViewportContent()
		m.viewport.GotoTop()
	}
}

// Update handles messages for the help component
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if !m.ShowAll {
			return m, nil
		}
		if msg.Type == tea.KeyEsc || msg.String() == "?" {
			m.Toggle()
			return m, nil
		}
		for _, b := range m.CloseKeys {
			if key.Matches(msg, b) {
				m.Toggle()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the help component
func (m Model) View() string {
	if m.Theme == nil {
		m.Theme = theme.DefaultTheme
	}
	if m.ShowAll {
		content := m.viewport.View()
		if m.viewport.TotalLineCount() > m.viewport.Height {
			indicator := "↕ more"
			if m.viewport.AtTop() {
				indicator = "↓ more"
			} else if m.viewport.AtBottom() {
				indicator = "↑ more"
			}
			indicatorStyle := m.Theme.Muted.Align(lipgloss.Right).Width(m.viewport.Width)
			content = lipgloss.JoinVertical(lipgloss.Right, content, indicatorStyle.Render(indicator))
		}
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, content)
	}
	if m.Keys == nil {
		return ""
	}
	return m.viewShort(m.Keys.ShortHelp())
}

func (m Model) viewShort(group []key.Binding) string {
	var pairs []string
	for _, binding := range group {
		if !binding.Enabled() {
			continue
		}
		h := binding.Help()
		if h.Key == "" || h.Desc == "" {
			continue
		}
		pairs = append(pairs, fmt.Sprintf("%s %s",
			m.Theme.Highlight.Render(h.Key),
			m.Theme.Muted.Render(h.Desc),
		))
	}
	if len(pairs) == 0 {
		return ""
	}
	return strings.Join(pairs, m.Theme.Muted.Render(" • "))
}

func (m *Model) setViewportContent() {
	const (
		verticalMargin   = 4
		horizontalMargin = 4
		gutterWidth      = 4
	)
	if m.Theme == nil {
		m.Theme = theme.DefaultTheme
	}

	var groups [][]key.Binding
	if m.Keys != nil {
		groups = m.Keys.FullHelp()
	}
	content := m.renderHelpContent(groups, verticalMargin, horizontalMargin, gutterWidth)
	m.viewport.SetContent(content)
	m.viewport.Width = lipgloss.Width(content)
	m.viewport.Height = max(1, m.Height-verticalMargin-1)
}

// renderHelpContent prefers a single column and spreads the groups over
// two columns when they do not fit vertically.
func (m *Model) renderHelpContent(groups [][]key.Binding, vMargin, hMargin, gutter int) string {
	blocks := m.groupBlocks(groups)
	if len(blocks) == 0 {
		return ""
	}

	titleText := m.Title
	if titleText == "" {
		titleText = "Help"
	}
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.Theme.Colors.Orange).
		MarginBottom(1).
		Align(lipgloss.Center)

	single := lipgloss.JoinVertical(lipgloss.Left, blocks...)
	singleWithTitle := lipgloss.JoinVertical(lipgloss.Center, titleStyle.Width(lipgloss.Width(single)).Render(titleText), single)
	if m.Height == 0 || lipgloss.Height(singleWithTitle) <= m.Height-vMargin-1 {
		return singleWithTitle
	}

	two := buildColumns(blocks, 2, gutter)
	twoWithTitle := lipgloss.JoinVertical(lipgloss.Center, titleStyle.Width(lipgloss.Width(two)).Render(titleText), two)
	if lipgloss.Width(twoWithTitle) <= m.Width-hMargin {
		return twoWithTitle
	}
	return singleWithTitle
}

// buildColumns distributes blocks across n columns, each block going to the
// currently shortest column.
func buildColumns(blocks []string, numCols, gutter int) string {
	columns := make([][]string, numCols)
	heights := make([]int, numCols)
	for _, block := range blocks {
		minIdx := 0
		for i := 1; i < numCols; i++ {
			if heights[i] < heights[minIdx] {
				minIdx = i
			}
		}
		columns[minIdx] = append(columns[minIdx], block)
		heights[minIdx] += lipgloss.Height(block)
	}

	gutterStr := strings.Repeat(" ", gutter)
	result := lipgloss.JoinVertical(lipgloss.Left, columns[0]...)
	for i := 1; i < numCols; i++ {
		if len(columns[i]) == 0 {
			continue
		}
		result = lipgloss.JoinHorizontal(lipgloss.Top, result, gutterStr, lipgloss.JoinVertical(lipgloss.Left, columns[i]...))
	}
	return result
}

func (m *Model) groupBlocks(groups [][]key.Binding) []string {
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(m.Theme.Colors.Cyan)
	var blocks []string
	for _, group := range groups {
		width := 0
		for _, b := range group {
			width = max(width, lipgloss.Width(b.Help().Key))
		}
		var lines []string
		for _, b := range group {
			if !b.Enabled() || b.Help().Key == "" {
				continue
			}
			lines = append(lines, keyStyle.Width(width+2).Render(b.Help().Key)+m.Theme.Normal.Render(b.Help().Desc))
		}
		if len(lines) > 0 {
			blocks = append(blocks, lipgloss.NewStyle().MarginBottom(1).Render(strings.Join(lines, "\n")))
		}
	}
	return blocks
}
