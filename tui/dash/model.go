// Package dash is the terminal dashboard for one session tree: a summary
// header, the flattened tree as a table and the waste findings.
package dash

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/tui/components/help"
	"github.com/grovetools/swarmstat/tui/theme"
)

// Snapshot is one analysis of a session tree.
type Snapshot struct {
	Tree     *models.Node
	Findings []models.Finding
	Summary  analysis.Summary
}

// NewSnapshot derives the summary for a built tree.
func NewSnapshot(tree *models.Node, findings []models.Finding) *Snapshot {
	return &Snapshot{Tree: tree, Findings: findings, Summary: analysis.Summarize(tree)}
}

// Loader produces a fresh snapshot. A nil tree means the root session
// does not exist.
type Loader func(ctx context.Context) (*Snapshot, error)

// Pane identifies the focused pane.
type Pane int

const (
	PaneTree Pane = iota
	PaneFindings
)

type loadedMsg struct {
	snap *Snapshot
	err  error
}

type tickMsg time.Time

// Model is the dashboard state.
type Model struct {
	load     Loader
	interval time.Duration
	keys     KeyMap
	help     help.Model
	theme    *theme.Theme

	table    table.Model
	findings viewport.Model
	spinner  spinner.Model

	snap    *Snapshot
	err     error
	loading bool
	focus   Pane
	width   int
	height  int
}

// Option configures a Model.
type Option func(*Model)

// WithRefreshInterval reloads the snapshot periodically.
func WithRefreshInterval(d time.Duration) Option {
	return func(m *Model) { m.interval = d }
}

// New creates a dashboard backed by load.
func New(load Loader, opts ...Option) *Model {
	t := theme.DefaultTheme

	tbl := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = t.TableHeader
	styles.Selected = t.SelectedRow
	tbl.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = t.Accent

	h := help.New(DefaultKeyMap)
	h.Title = "Dashboard"

	m := &Model{
		load:     load,
		keys:     DefaultKeyMap,
		help:     h,
		theme:    t,
		table:    tbl,
		findings: viewport.New(80, 8),
		spinner:  sp,
		loading:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init starts the spinner and the first load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *Model) fetch() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		snap, err := load(context.Background())
		return loadedMsg{snap: snap, err: err}
	}
}

func (m *Model) tick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Snapshot returns the data currently displayed.
func (m *Model) Snapshot() *Snapshot {
	return m.snap
}

// Focus returns the focused pane.
func (m *Model) Focus() Pane {
	return m.focus
}

// Loading reports whether a load is in flight.
func (m *Model) Loading() bool {
	return m.loading
}

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.layout()
		return m, nil

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.refreshContent()
		}
		return m, m.tick()

	case tickMsg:
		if m.loading {
			return m, m.tick()
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.help.ShowAll {
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			return m, cmd
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.Toggle()
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		case key.Matches(msg, m.keys.Switch):
			if m.focus == PaneTree {
				m.focus = PaneFindings
				m.table.Blur()
			} else {
				m.focus = PaneTree
				m.table.Focus()
			}
			return m, nil
		}

		var cmd tea.Cmd
		if m.focus == PaneTree {
			m.table, cmd = m.table.Update(msg)
		} else {
			m.findings, cmd = m.findings.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	const chrome = 8
	avail := max(4, m.height-chrome)
	treeHeight := max(3, avail*3/5)
	m.table.SetColumns(columns(m.width))
	m.table.SetWidth(m.width)
	m.table.SetHeight(treeHeight)
	m.findings.Width = max(1, m.width-1)
	m.findings.Height = max(2, avail-treeHeight)
	m.refreshContent()
}

func (m *Model) refreshContent() {
	if m.snap == nil {
		m.table.SetRows(nil)
		m.findings.SetContent("")
		return
	}
	m.table.SetRows(treeRows(m.snap.Tree))
	m.findings.SetContent(m.renderFindings())
}
