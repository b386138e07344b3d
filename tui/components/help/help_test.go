package help

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type testKeys struct {
	Quit, Refresh, Hidden key.Binding
}

func (k testKeys) ShortHelp() []key.Binding { return []key.Binding{k.Refresh, k.Quit, k.Hidden} }

func (k testKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh}, {k.Quit}}
}

func newKeys() testKeys {
	return testKeys{
		Quit:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Hidden:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hidden"), key.WithDisabled()),
	}
}

func TestShortView(t *testing.T) {
	m := New(newKeys())
	out := m.View()
	assert.Contains(t, out, "refresh")
	assert.Contains(t, out, "quit")
	assert.NotContains(t, out, "hidden")
}

func TestToggle(t *testing.T) {
	keys := newKeys()
	m := New(keys)
	m.CloseKeys = []key.Binding{keys.Quit}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	m.Toggle()
	assert.True(t, m.ShowAll)
	assert.Contains(t, m.View(), "Help")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.False(t, m.ShowAll)

	m.Toggle()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.ShowAll)
}

func TestNilKeys(t *testing.T) {
	m := New(nil)
	assert.Equal(t, "", m.View())
}
