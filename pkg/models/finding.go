package models

// Severity grades a finding.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityWarn   Severity = "warn"
	SeveritySevere Severity = "severe"
)

// Rank orders severities from least to most urgent.
func (s Severity) Rank() int {
	switch s {
	case SeveritySevere:
		return 2
	case SeverityWarn:
		return 1
	default:
		return 0
	}
}

// FindingType is the machine name of a waste rule.
type FindingType string

const (
	FindingAbandoned        FindingType = "abandoned_session"
	FindingExcessive        FindingType = "excessive_iteration"
	FindingWastedCompute    FindingType = "wasted_compute"
	FindingLowEfficiency    FindingType = "low_efficiency"
	FindingOutputHeavy      FindingType = "output_heavy"
	FindingLongRunning      FindingType = "long_running"
	FindingDuplicateContext FindingType = "duplicate_context"
	FindingToolDominance    FindingType = "tool_dominance"
	FindingExpensiveTool    FindingType = "expensive_tool"
	FindingDeepDelegation   FindingType = "deep_delegation"
	FindingHighIntervention FindingType = "high_intervention"
	FindingInefficientRead  FindingType = "inefficient_read"
)

var findingTitles = map[FindingType]string{
	FindingAbandoned:        "Abandoned Session",
	FindingExcessive:        "Excessive Iteration",
	FindingWastedCompute:    "Wasted Compute",
	FindingLowEfficiency:    "Low Token Efficiency",
	FindingOutputHeavy:      "Output Heavy",
	FindingLongRunning:      "Long Running",
	FindingDuplicateContext: "Duplicate Context Queries",
	FindingToolDominance:    "Tool Dominance",
	FindingExpensiveTool:    "Expensive Tool",
	FindingDeepDelegation:   "Deep Delegation",
	FindingHighIntervention: "High Human Intervention",
	FindingInefficientRead:  "Inefficient Reads",
}

// Title returns the display name of the rule.
func (t FindingType) Title() string {
	if title, ok := findingTitles[t]; ok {
		return title
	}
	return string(t)
}

// Finding is one result of waste detection. Subject names what the finding
// is about: a session id for per-node rules, a tool for tool rules, and the
// root session id for tree-wide rules.
type Finding struct {
	Type      FindingType      `json:"type"`
	Title     string           `json:"title"`
	Severity  Severity         `json:"severity"`
	Subject   string           `json:"subject"`
	SessionID string           `json:"sessionID,omitempty"`
	Agent     string           `json:"agent,omitempty"`
	Tool      string           `json:"tool,omitempty"`
	Detail    string           `json:"detail"`
	Count     int              `json:"count,omitempty"`
	Tokens    int64            `json:"tokens,omitempty"`
	ByAgent   []AgentReadTally `json:"byAgent,omitempty"`
}

// AgentReadTally aggregates inefficient reads for one agent.
type AgentReadTally struct {
	Agent  string `json:"agent"`
	Count  int    `json:"count"`
	Tokens int64  `json:"tokens"`
}
