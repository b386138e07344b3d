// Package agentpicker is an interactive editor for the model each opencode
// agent runs on: select agents, pick a model, save.
package agentpicker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/swarmstat/pkg/agents"
	"github.com/grovetools/swarmstat/tui/components/help"
	"github.com/grovetools/swarmstat/tui/theme"
)

// Mode is the list currently shown.
type Mode int

const (
	ModeAgents Mode = iota
	ModeModels
)

var filterChar = regexp.MustCompile(`^[a-zA-Z0-9\-/]$`)

// Model is the picker state.
type Model struct {
	agents   []agents.Agent
	models   []string
	selected map[string]bool
	pending  map[string]string
	cursor   int
	filter   string
	mode     Mode
	keys     KeyMap
	help     help.Model
	theme    *theme.Theme
	width    int
	height   int

	// Saved is set when the user confirmed the pending changes with "s".
	Saved bool
}

// New creates a picker over the given agents and available models.
func New(list []agents.Agent, models []string) *Model {
	h := help.New(DefaultKeyMap)
	h.Title = "Agent models"
	return &Model{
		agents:   list,
		models:   models,
		selected: map[string]bool{},
		pending:  map[string]string{},
		keys:     DefaultKeyMap,
		help:     h,
		theme:    theme.DefaultTheme,
	}
}

// Init is the first command that will be executed.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Changes returns the pending model assignments ordered by agent name.
func (m *Model) Changes() []agents.Change {
	var out []agents.Change
	for _, a := range m.agents {
		if model, ok := m.pending[a.Name]; ok {
			out = append(out, agents.Change{Agent: a, Model: model})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent.Name < out[j].Agent.Name })
	return out
}

// Mode reports the list currently shown.
func (m *Model) Mode() Mode {
	return m.mode
}

func (m *Model) filteredAgents() []agents.Agent {
	var out []agents.Agent
	for _, a := range m.agents {
		if strings.Contains(a.Name, m.filter) {
			out = append(out, a)
		}
	}
	return out
}

func (m *Model) filteredModels() []string {
	var out []string
	f := strings.ToLower(m.filter)
	for _, model := range m.models {
		if strings.Contains(strings.ToLower(model), f) {
			out = append(out, model)
		}
	}
	return out
}

func (m *Model) visibleLen() int {
	if m.mode == ModeAgents {
		return len(m.filteredAgents())
	}
	return len(m.filteredModels())
}

func (m *Model) resetList(mode Mode) {
	m.mode = mode
	m.cursor = 0
	m.filter = ""
}

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.help.ShowAll {
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit

	case m.mode == ModeAgents && key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case m.mode == ModeAgents && key.Matches(msg, m.keys.Save):
		if len(m.pending) == 0 {
			return m, nil
		}
		m.Saved = true
		return m, tea.Quit

	case m.mode == ModeAgents && key.Matches(msg, m.keys.Help):
		m.help.Toggle()
		return m, nil

	case m.mode == ModeModels && key.Matches(msg, m.keys.Cancel):
		m.resetList(ModeAgents)
		m.selected = map[string]bool{}

	case key.Matches(msg, m.keys.Up):
		m.cursor = max(0, m.cursor-1)

	case key.Matches(msg, m.keys.Down):
		m.cursor = max(0, min(m.visibleLen()-1, m.cursor+1))

	case m.mode == ModeAgents && key.Matches(msg, m.keys.Toggle):
		list := m.filteredAgents()
		if m.cursor < len(list) {
			name := list[m.cursor].Name
			if m.selected[name] {
				delete(m.selected, name)
			} else {
				m.selected[name] = true
			}
		}

	case key.Matches(msg, m.keys.Choose):
		if m.mode == ModeAgents {
			if len(m.selected) > 0 {
				m.resetList(ModeModels)
			}
			return m, nil
		}
		list := m.filteredModels()
		if m.cursor < len(list) {
			for name := range m.selected {
				m.pending[name] = list[m.cursor]
			}
			m.resetList(ModeAgents)
			m.selected = map[string]bool{}
		}

	case key.Matches(msg, m.keys.Backspace):
		if m.filter != "" {
			m.filter = m.filter[:len(m.filter)-1]
		}
		m.cursor = 0

	default:
		if s := msg.String(); filterChar.MatchString(s) {
			m.filter += s
			m.cursor = 0
		}
	}
	return m, nil
}

// View renders the picker.
func (m *Model) View() string {
	if m.help.ShowAll {
		return m.help.View()
	}
	t := m.theme
	var b strings.Builder

	if m.mode == ModeAgents {
		b.WriteString(t.Header.Render("Agent models") + "\n\n")
		if m.filter != "" {
			fmt.Fprintf(&b, "%s %s\n\n", t.Muted.Render("Filter:"), m.filter)
		}
		if len(m.pending) > 0 {
			b.WriteString(t.Warning.Render(fmt.Sprintf("Pending changes: %d", len(m.pending))) + "\n\n")
		}
		for i, a := range m.filteredAgents() {
			mark := " "
			if m.selected[a.Name] {
				mark = "✓"
			}
			line := fmt.Sprintf("[%s] %s (%s", mark, a.Name, a.Model)
			if next, ok := m.pending[a.Name]; ok {
				line += " → " + next
			}
			line += ")"
			b.WriteString(m.row(i, line) + "\n")
		}
	} else {
		b.WriteString(t.Header.Render(fmt.Sprintf("Updating %d agent(s)", len(m.selected))) + "\n")
		b.WriteString(t.Muted.Render("Select model (enter=apply, esc=cancel)") + "\n\n")
		if m.filter != "" {
			fmt.Fprintf(&b, "%s %s\n\n", t.Muted.Render("Filter:"), m.filter)
		}
		for i, model := range m.filteredModels() {
			b.WriteString(m.row(i, model) + "\n")
		}
	}

	b.WriteString("\n" + m.help.View())
	return b.String()
}

func (m *Model) row(i int, text string) string {
	if i == m.cursor {
		return m.theme.Highlight.Render("> " + text)
	}
	return "  " + text
}
