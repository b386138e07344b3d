package models

// Tokens is a token total. Estimated is sticky: once any contributing count
// came from the fallback estimator the total stays marked.
type Tokens struct {
	Input     int64 `json:"input"`
	Output    int64 `json:"output"`
	Estimated bool  `json:"estimated"`
}

// Total returns input plus output.
func (t Tokens) Total() int64 {
	return t.Input + t.Output
}

// Add accumulates o into t.
func (t *Tokens) Add(o Tokens) {
	t.Input += o.Input
	t.Output += o.Output
	t.Estimated = t.Estimated || o.Estimated
}

// AgentStats is the per-agent rollup within one node.
type AgentStats struct {
	Messages   int      `json:"messages"`
	Diffs      int      `json:"diffs"`
	Models     []string `json:"models"`
	Duration   *int64   `json:"duration"`
	Tokens     Tokens   `json:"tokens"`
	DiffTokens int64    `json:"diffTokens"`
}

// FileStats is the per-file rollup within one node.
type FileStats struct {
	Additions int      `json:"additions"`
	Deletions int      `json:"deletions"`
	Agents    []string `json:"agents"`
}

// ToolStats accumulates invocations of one tool.
type ToolStats struct {
	Calls        int   `json:"calls"`
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	Duration     int64 `json:"duration"`
}

// Tokens returns input plus output tokens.
func (s ToolStats) Tokens() int64 {
	return s.InputTokens + s.OutputTokens
}

// Add accumulates o into s.
func (s *ToolStats) Add(o ToolStats) {
	s.Calls += o.Calls
	s.InputTokens += o.InputTokens
	s.OutputTokens += o.OutputTokens
	s.Duration += o.Duration
}

// HumanAgent is the agent name used for human timeline entries.
const HumanAgent = "human"

// TimelineEntry is one message on the merged timeline.
type TimelineEntry struct {
	Time       int64  `json:"time"`
	Agent      string `json:"agent"`
	Diffs      int    `json:"diffs"`
	Tokens     int64  `json:"tokens"`
	DiffTokens int64  `json:"diffTokens"`
}

// ToolEvent is the normalized view of one tool invocation.
type ToolEvent struct {
	Tool         string                 `json:"tool"`
	Args         map[string]interface{} `json:"args,omitempty"`
	InputTokens  int64                  `json:"inputTokens"`
	OutputTokens int64                  `json:"outputTokens"`
	Start        int64                  `json:"start,omitempty"`
	End          int64                  `json:"end,omitempty"`
	Duration     int64                  `json:"duration"`
	Inefficient  bool                   `json:"inefficient,omitempty"`
	File         string                 `json:"file,omitempty"`
}

// Flame event kinds.
const (
	FlameTool  = "tool"
	FlameAgent = "agent"
)

// FlameEvent is a span on the activity chart: a tool call or an agent message.
type FlameEvent struct {
	Type  string                 `json:"type"`
	Name  string                 `json:"name"`
	Start int64                  `json:"start"`
	End   int64                  `json:"end"`
	Agent string                 `json:"agent,omitempty"`
	Args  map[string]interface{} `json:"args,omitempty"`
}

// InefficientRead is a full-file read that carried no range hint.
type InefficientRead struct {
	File   string `json:"file"`
	Agent  string `json:"agent"`
	Tokens int64  `json:"tokens"`
}

// Node is the aggregated view of one session and, through the merged
// fields, of its whole subtree.
//
// Messages, Diffs, Agents and Files cover this session only. Timeline,
// Tokens, DiffTokens, ReferencedFiles, ToolStats, FlameEvents and
// InefficientReads include every descendant.
type Node struct {
	ID               string                `json:"id"`
	Title            string                `json:"title"`
	Directory        string                `json:"directory,omitempty"`
	Agent            string                `json:"agent,omitempty"`
	Messages         int                   `json:"messages"`
	Diffs            int                   `json:"diffs"`
	Agents           map[string]AgentStats `json:"agents"`
	Files            map[string]FileStats  `json:"files"`
	Children         []*Node               `json:"children"`
	Created          int64                 `json:"created,omitempty"`
	Duration         *int64                `json:"duration"`
	Timeline         []TimelineEntry       `json:"timeline"`
	Tokens           Tokens                `json:"tokens"`
	DiffTokens       int64                 `json:"diffTokens"`
	ReferencedFiles  []string              `json:"referencedFiles"`
	HumanMessages    int                   `json:"humanMessages"`
	ToolStats        map[string]ToolStats  `json:"toolStats"`
	ToolCalls        int                   `json:"toolCalls"`
	FlameEvents      []FlameEvent          `json:"flameEvents"`
	InefficientReads []InefficientRead     `json:"inefficientReads"`
}

// FlatNode is a node as it appears in a depth-first listing. Children is
// always nil on the embedded copy; ChildCount keeps the fan-out.
type FlatNode struct {
	Node
	Depth      int `json:"depth"`
	ChildCount int `json:"childCount"`
}
