// Package analysis aggregates session trees and evaluates waste heuristics
// over the result.
package analysis

import (
	"time"
)

// Heuristics holds the constants behind token estimation and tool
// classification. They are approximations and are kept configurable rather
// than derived.
type Heuristics struct {
	// CharsPerToken converts text and serialized payload length to tokens.
	CharsPerToken float64
	// CharsPerDiffLine is the assumed width of one changed line.
	CharsPerDiffLine float64
	// BaseContextTokens is the input charged to a non-human message without
	// recorded usage.
	BaseContextTokens int64
	// ReadTools are the tool names whose calls are checked for range hints.
	ReadTools []string
	// RangeParams are the argument names that scope a read.
	RangeParams []string
}

// DefaultHeuristics returns 4 chars/token, 40 chars/line and a 500 token
// context baseline.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		CharsPerToken:     4,
		CharsPerDiffLine:  40,
		BaseContextTokens: 500,
		ReadTools:         []string{"read"},
		RangeParams:       []string{"offset", "limit", "startLine", "endLine"},
	}
}

// DiffTokensPerLine is the token cost of one added line (10 by default).
func (h Heuristics) DiffTokensPerLine() float64 {
	return h.CharsPerDiffLine / h.CharsPerToken
}

func (h Heuristics) isReadTool(name string) bool {
	for _, t := range h.ReadTools {
		if t == name {
			return true
		}
	}
	return false
}

// Policy is the threshold table for waste detection.
type Policy struct {
	// ReadOnlyAgents are exempt from the iteration, abandonment and
	// efficiency rules.
	ReadOnlyAgents []string `yaml:"read_only_agents" json:"read_only_agents"`
	// ContextAgent is the context-lookup role counted by the duplicate
	// context rule.
	ContextAgent string `yaml:"context_agent" json:"context_agent"`

	AbandonedMaxMessages   int           `yaml:"abandoned_max_messages" json:"abandoned_max_messages"`
	ExcessiveMessages      int           `yaml:"excessive_messages" json:"excessive_messages"`
	WastedMinMessages      int           `yaml:"wasted_min_messages" json:"wasted_min_messages"`
	LowEfficiencyRatio     float64       `yaml:"low_efficiency_ratio" json:"low_efficiency_ratio"`
	OutputHeavyMinTokens   int64         `yaml:"output_heavy_min_tokens" json:"output_heavy_min_tokens"`
	LongRunning            time.Duration `yaml:"long_running" json:"long_running"`
	DuplicateContextMax    int           `yaml:"duplicate_context_max" json:"duplicate_context_max"`
	ToolDominanceMinTokens int64         `yaml:"tool_dominance_min_tokens" json:"tool_dominance_min_tokens"`
	ToolDominanceShare     float64       `yaml:"tool_dominance_share" json:"tool_dominance_share"`
	ExpensiveToolTokens    int64         `yaml:"expensive_tool_tokens" json:"expensive_tool_tokens"`
	MaxDelegationDepth     int           `yaml:"max_delegation_depth" json:"max_delegation_depth"`
	MaxHumanMessages       int           `yaml:"max_human_messages" json:"max_human_messages"`
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ReadOnlyAgents: []string{
			"product-owner",
			"orchestrator",
			"project-knowledge",
			"validator",
			"code-search",
			"dependency-analyzer",
			"api-documentation",
		},
		ContextAgent:           "project-knowledge",
		AbandonedMaxMessages:   2,
		ExcessiveMessages:      40,
		WastedMinMessages:      5,
		LowEfficiencyRatio:     50,
		OutputHeavyMinTokens:   5000,
		LongRunning:            30 * time.Minute,
		DuplicateContextMax:    2,
		ToolDominanceMinTokens: 10000,
		ToolDominanceShare:     0.6,
		ExpensiveToolTokens:    100000,
		MaxDelegationDepth:     4,
		MaxHumanMessages:       5,
	}
}

// IsReadOnly reports whether agent is on the read-only allow-list.
func (p Policy) IsReadOnly(agent string) bool {
	for _, a := range p.ReadOnlyAgents {
		if a == agent {
			return true
		}
	}
	return false
}
