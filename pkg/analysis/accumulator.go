package analysis

import (
	"sort"

	"github.com/grovetools/swarmstat/pkg/models"
)

// nodeAccumulator collects the statistics of one frame. It is owned by a
// single buildNode call; children are merged in only after they are done.
type nodeAccumulator struct {
	isRoot bool

	agents map[string]*agentAccumulator
	files  map[string]*fileAccumulator
	diffs  int

	start, end int64

	timeline        []models.TimelineEntry
	tokens          models.Tokens
	referenced      map[string]struct{}
	humanMessages   int
	toolStats       map[string]models.ToolStats
	flameEvents     []models.FlameEvent
	reads           []models.InefficientRead
	childDiffTokens int64
}

type agentAccumulator struct {
	messages   int
	diffs      int
	models     []string
	start, end int64
	tokens     models.Tokens
	diffTokens int64
}

type fileAccumulator struct {
	additions int
	deletions int
	agents    []string
}

func newNodeAccumulator(isRoot bool) *nodeAccumulator {
	return &nodeAccumulator{
		isRoot:      isRoot,
		agents:      make(map[string]*agentAccumulator),
		files:       make(map[string]*fileAccumulator),
		timeline:    []models.TimelineEntry{},
		referenced:  make(map[string]struct{}),
		toolStats:   make(map[string]models.ToolStats),
		flameEvents: []models.FlameEvent{},
		reads:       []models.InefficientRead{},
	}
}

func (n *nodeAccumulator) addMessage(m models.Message, h Heuristics, planning *PlanningMatcher) {
	if m.Role == models.RoleUser && n.isRoot {
		n.humanMessages++
		if m.Created != 0 {
			n.timeline = append(n.timeline, models.TimelineEntry{Time: m.Created, Agent: models.HumanAgent})
		}
	}

	name := m.AgentName()
	a, ok := n.agents[name]
	if !ok {
		a = &agentAccumulator{models: []string{}}
		n.agents[name] = a
	}
	a.messages++
	if key := m.ModelKey(); key != "" {
		a.models = appendUnique(a.models, key)
	}

	for _, d := range m.Diffs {
		if planning.Match(d.File) {
			n.referenced[d.File] = struct{}{}
		}
	}

	tok := h.Estimate(m)
	a.tokens.Add(tok)
	n.tokens.Add(tok)

	diffTokens := h.DiffTokens(m)
	a.diffTokens += diffTokens

	if m.Created != 0 {
		n.start = minNonZero(n.start, m.Created)
		a.start = minNonZero(a.start, m.Created)
		n.timeline = append(n.timeline, models.TimelineEntry{
			Time:       m.Created,
			Agent:      name,
			Diffs:      len(m.Diffs),
			Tokens:     tok.Total(),
			DiffTokens: diffTokens,
		})
	}
	end := m.Completed
	if end == 0 {
		end = m.Created
	}
	if end != 0 {
		n.end = max(n.end, end)
		a.end = max(a.end, end)
	}

	a.diffs += len(m.Diffs)
	n.diffs += len(m.Diffs)
	for _, d := range m.Diffs {
		f, ok := n.files[d.File]
		if !ok {
			f = &fileAccumulator{agents: []string{}}
			n.files[d.File] = f
		}
		f.additions += d.Additions
		f.deletions += d.Deletions
		f.agents = appendUnique(f.agents, name)
	}
}

func (n *nodeAccumulator) addToolEvents(m models.Message, events []models.ToolEvent) {
	agent := m.AgentName()
	for _, ev := range events {
		stats := n.toolStats[ev.Tool]
		stats.Add(models.ToolStats{
			Calls:        1,
			InputTokens:  ev.InputTokens,
			OutputTokens: ev.OutputTokens,
			Duration:     ev.Duration,
		})
		n.toolStats[ev.Tool] = stats

		if ev.Start != 0 && ev.End != 0 {
			n.flameEvents = append(n.flameEvents, models.FlameEvent{
				Type:  models.FlameTool,
				Name:  ev.Tool,
				Start: ev.Start,
				End:   ev.End,
				Agent: agent,
				Args:  ev.Args,
			})
		}
		if ev.Inefficient {
			n.reads = append(n.reads, models.InefficientRead{File: ev.File, Agent: agent, Tokens: ev.OutputTokens})
		}
	}
	if m.Created != 0 && m.Completed != 0 {
		n.flameEvents = append(n.flameEvents, models.FlameEvent{
			Type:  models.FlameAgent,
			Name:  agent,
			Start: m.Created,
			End:   m.Completed,
		})
	}
}

// mergeChild folds a finished child into the subtree-wide fields. Per-agent
// and per-file maps and the diff count stay scoped to their own node.
func (n *nodeAccumulator) mergeChild(c *models.Node) {
	n.timeline = append(n.timeline, c.Timeline...)
	n.tokens.Add(c.Tokens)
	n.childDiffTokens += c.DiffTokens
	for _, f := range c.ReferencedFiles {
		n.referenced[f] = struct{}{}
	}
	for tool, stats := range c.ToolStats {
		merged := n.toolStats[tool]
		merged.Add(stats)
		n.toolStats[tool] = merged
	}
	n.flameEvents = append(n.flameEvents, c.FlameEvents...)
	n.reads = append(n.reads, c.InefficientReads...)
}

func (n *nodeAccumulator) finish(s *models.Session, msgs []models.Message, children []*models.Node) *models.Node {
	sort.SliceStable(n.timeline, func(i, j int) bool { return n.timeline[i].Time < n.timeline[j].Time })
	sort.SliceStable(n.flameEvents, func(i, j int) bool { return n.flameEvents[i].Start < n.flameEvents[j].Start })

	node := &models.Node{
		ID:               s.ID,
		Title:            s.Title,
		Directory:        s.Directory,
		Messages:         len(msgs),
		Diffs:            n.diffs,
		Agents:           make(map[string]models.AgentStats, len(n.agents)),
		Files:            make(map[string]models.FileStats, len(n.files)),
		Children:         children,
		Created:          s.Created,
		Duration:         span(n.start, n.end),
		Timeline:         n.timeline,
		Tokens:           n.tokens,
		ReferencedFiles:  make([]string, 0, len(n.referenced)),
		HumanMessages:    n.humanMessages,
		ToolStats:        n.toolStats,
		FlameEvents:      n.flameEvents,
		InefficientReads: n.reads,
	}
	if len(msgs) > 0 {
		node.Agent = msgs[0].AgentName()
	}

	diffTokens := n.childDiffTokens
	for name, a := range n.agents {
		node.Agents[name] = models.AgentStats{
			Messages:   a.messages,
			Diffs:      a.diffs,
			Models:     a.models,
			Duration:   span(a.start, a.end),
			Tokens:     a.tokens,
			DiffTokens: a.diffTokens,
		}
		diffTokens += a.diffTokens
	}
	node.DiffTokens = diffTokens

	for file, f := range n.files {
		node.Files[file] = models.FileStats{Additions: f.additions, Deletions: f.deletions, Agents: f.agents}
	}
	for f := range n.referenced {
		node.ReferencedFiles = append(node.ReferencedFiles, f)
	}
	sort.Strings(node.ReferencedFiles)

	for _, stats := range n.toolStats {
		node.ToolCalls += stats.Calls
	}
	return node
}

func span(start, end int64) *int64 {
	if start == 0 || end == 0 {
		return nil
	}
	d := end - start
	return &d
}

func minNonZero(cur, v int64) int64 {
	if cur == 0 || v < cur {
		return v
	}
	return cur
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
