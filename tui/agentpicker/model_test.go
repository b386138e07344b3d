package agentpicker

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/swarmstat/pkg/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func newPicker() *Model {
	list := []agents.Agent{
		{Name: "architect", Model: "none"},
		{Name: "coder", Model: "openai/gpt-4o"},
		{Name: "reviewer", Model: "openai/gpt-4o"},
	}
	return New(list, []string{"anthropic/claude-sonnet-4", "openai/gpt-4o", "openai/o3"})
}

func TestSelectAndApplyModel(t *testing.T) {
	m := newPicker()

	// enter without a selection stays in agent mode
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeAgents, m.Mode())

	press(m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	require.Equal(t, ModeModels, m.Mode())
	assert.Contains(t, m.View(), "Updating 2 agent(s)")

	press(m, runes("o"), runes("3"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeAgents, m.Mode())

	changes := m.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, "coder", changes[0].Agent.Name)
	assert.Equal(t, "openai/o3", changes[0].Model)
	assert.Equal(t, "reviewer", changes[1].Agent.Name)
	assert.Contains(t, m.View(), "Pending changes: 2")
	assert.Contains(t, m.View(), "coder (openai/gpt-4o → openai/o3)")

	cmd := press(m, runes("s"))
	assert.True(t, m.Saved)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSaveWithoutChanges(t *testing.T) {
	m := newPicker()
	cmd := press(m, runes("s"))
	assert.Nil(t, cmd)
	assert.False(t, m.Saved)
}

func TestCancelModelSelection(t *testing.T) {
	m := newPicker()
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeModels, m.Mode())

	// q and s are filter characters while choosing a model
	cmd := press(m, runes("q"))
	assert.Nil(t, cmd)
	assert.Equal(t, "q", m.filter)

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeAgents, m.Mode())
	assert.Empty(t, m.filter)
	assert.Empty(t, m.selected)
	assert.Empty(t, m.Changes())
}

func TestFilterAgents(t *testing.T) {
	m := newPicker()
	press(m, runes("r"), runes("e"), runes("v"))
	assert.Len(t, m.filteredAgents(), 1)
	assert.NotContains(t, m.View(), "architect")

	press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "re", m.filter)

	// non-filter characters are ignored
	press(m, runes("!"))
	assert.Equal(t, "re", m.filter)
}

func TestCursorBounds(t *testing.T) {
	m := newPicker()
	press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)
}

func TestQuit(t *testing.T) {
	m := newPicker()
	cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.False(t, m.Saved)
}
