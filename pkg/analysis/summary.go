package analysis

import (
	"sort"

	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/samber/lo"
)

// AgentAggregate sums one agent's statistics across every node of a tree.
type AgentAggregate struct {
	Agent      string        `json:"agent"`
	Messages   int           `json:"messages"`
	Diffs      int           `json:"diffs"`
	Sessions   int           `json:"sessions"`
	Duration   int64         `json:"duration"`
	Tokens     models.Tokens `json:"tokens"`
	DiffTokens int64         `json:"diffTokens"`
	Ratio      int64         `json:"ratio"`
}

// FileAggregate sums the changes to one file across every node of a tree.
type FileAggregate struct {
	File      string   `json:"file"`
	Additions int      `json:"additions"`
	Deletions int      `json:"deletions"`
	Agents    []string `json:"agents"`
}

// Summary is the headline view of an aggregated tree.
type Summary struct {
	RootID         string           `json:"rootID"`
	Title          string           `json:"title"`
	Sessions       int              `json:"sessions"`
	AgentCalls     int              `json:"agentCalls"`
	HumanInputs    int              `json:"humanInputs"`
	Messages       int              `json:"messages"`
	Diffs          int              `json:"diffs"`
	DistinctAgents int              `json:"distinctAgents"`
	Duration       *int64           `json:"duration"`
	Tokens         models.Tokens    `json:"tokens"`
	DiffTokens     int64            `json:"diffTokens"`
	TokenRatio     int64            `json:"tokenRatio"`
	ToolCalls      int              `json:"toolCalls"`
	MaxDepth       int              `json:"maxDepth"`
	Agents         []AgentAggregate `json:"agents"`
	Files          []FileAggregate  `json:"files"`
}

// Summarize computes the headline numbers and the per-agent and per-file
// aggregates of a tree. A nil root yields the zero Summary.
func Summarize(root *models.Node) Summary {
	if root == nil {
		return Summary{Agents: []AgentAggregate{}, Files: []FileAggregate{}}
	}
	flat := Flatten(root)

	s := Summary{
		RootID:      root.ID,
		Title:       root.Title,
		Sessions:    len(flat),
		HumanInputs: root.HumanMessages,
		Messages:    lo.SumBy(flat, func(n models.FlatNode) int { return n.Messages }),
		Diffs:       lo.SumBy(flat, func(n models.FlatNode) int { return n.Diffs }),
		DistinctAgents: len(lo.Uniq(lo.Compact(lo.Map(flat, func(n models.FlatNode, _ int) string {
			return n.Agent
		})))),
		Duration:   root.Duration,
		Tokens:     root.Tokens,
		DiffTokens: root.DiffTokens,
		TokenRatio: TokenRatio(root.Tokens.Total(), root.DiffTokens),
		ToolCalls:  root.ToolCalls,
		MaxDepth:   MaxDepth(flat),
		Agents:     AggregateAgents(flat),
		Files:      AggregateFiles(flat),
	}
	s.AgentCalls = lo.SumBy(s.Agents, func(a AgentAggregate) int { return a.Sessions })
	return s
}

// AggregateAgents merges per-node agent stats, sorted by messages
// descending and then by name.
func AggregateAgents(flat []models.FlatNode) []AgentAggregate {
	byAgent := make(map[string]*AgentAggregate)
	for _, n := range flat {
		for name, stats := range n.Agents {
			agg, ok := byAgent[name]
			if !ok {
				agg = &AgentAggregate{Agent: name}
				byAgent[name] = agg
			}
			agg.Messages += stats.Messages
			agg.Diffs += stats.Diffs
			agg.Sessions++
			agg.DiffTokens += stats.DiffTokens
			if stats.Duration != nil {
				agg.Duration += *stats.Duration
			}
			agg.Tokens.Add(stats.Tokens)
		}
	}

	out := lo.Map(lo.Values(byAgent), func(a *AgentAggregate, _ int) AgentAggregate {
		a.Ratio = TokenRatio(a.Tokens.Total(), a.DiffTokens)
		return *a
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Messages != out[j].Messages {
			return out[i].Messages > out[j].Messages
		}
		return out[i].Agent < out[j].Agent
	})
	return out
}

// AggregateFiles merges per-node file stats, sorted by lines changed
// descending and then by path.
func AggregateFiles(flat []models.FlatNode) []FileAggregate {
	byFile := make(map[string]*FileAggregate)
	for _, n := range flat {
		for file, stats := range n.Files {
			agg, ok := byFile[file]
			if !ok {
				agg = &FileAggregate{File: file, Agents: []string{}}
				byFile[file] = agg
			}
			agg.Additions += stats.Additions
			agg.Deletions += stats.Deletions
			agg.Agents = lo.Uniq(append(agg.Agents, stats.Agents...))
		}
	}

	out := lo.Map(lo.Values(byFile), func(f *FileAggregate, _ int) FileAggregate { return *f })
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Additions+out[i].Deletions, out[j].Additions+out[j].Deletions
		if ci != cj {
			return ci > cj
		}
		return out[i].File < out[j].File
	})
	return out
}
