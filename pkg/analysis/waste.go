package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grovetools/swarmstat/pkg/models"
)

// Detector evaluates the waste rules under a policy. It holds no state
// between calls.
type Detector struct {
	policy Policy
}

// NewDetector creates a Detector for p.
func NewDetector(p Policy) *Detector {
	return &Detector{policy: p}
}

// DetectWaste runs the default policy over a flattened tree and its root.
func DetectWaste(flat []models.FlatNode, root *models.Node) []models.Finding {
	return NewDetector(DefaultPolicy()).Detect(flat, root)
}

type nodeRule struct {
	kind     models.FindingType
	severity models.Severity
	// readOnlyExempt skips nodes whose agent is on the read-only list.
	readOnlyExempt bool
	match          func(p Policy, n models.FlatNode) bool
	detail         func(p Policy, n models.FlatNode) string
}

var nodeRules = []nodeRule{
	{
		kind:           models.FindingAbandoned,
		severity:       models.SeverityWarn,
		readOnlyExempt: true,
		match: func(p Policy, n models.FlatNode) bool {
			return n.Messages <= p.AbandonedMaxMessages && n.Diffs == 0 && n.ChildCount == 0
		},
		detail: func(p Policy, n models.FlatNode) string {
			return fmt.Sprintf("%d msgs, 0 diffs. Session started but produced nothing.", n.Messages)
		},
	},
	{
		kind:           models.FindingExcessive,
		severity:       models.SeveritySevere,
		readOnlyExempt: true,
		match: func(p Policy, n models.FlatNode) bool {
			return n.Messages > p.ExcessiveMessages
		},
		detail: func(p Policy, n models.FlatNode) string {
			rate := "no output"
			if n.Diffs > 0 {
				rate = fmt.Sprintf("%.1f msgs/diff", float64(n.Messages)/float64(n.Diffs))
			}
			return fmt.Sprintf("%d msgs for %d diffs (%s). Possible micromanagement or thrashing.", n.Messages, n.Diffs, rate)
		},
	},
	{
		kind:           models.FindingWastedCompute,
		severity:       models.SeveritySevere,
		readOnlyExempt: true,
		match: func(p Policy, n models.FlatNode) bool {
			return n.Messages > p.WastedMinMessages && n.Diffs == 0 && n.ChildCount == 0
		},
		detail: func(p Policy, n models.FlatNode) string {
			return fmt.Sprintf("%d msgs with zero output. Tokens burned with no result.", n.Messages)
		},
	},
	{
		kind:           models.FindingLowEfficiency,
		severity:       models.SeverityWarn,
		readOnlyExempt: true,
		match: func(p Policy, n models.FlatNode) bool {
			return n.DiffTokens > 0 && float64(n.Tokens.Total())/float64(n.DiffTokens) > p.LowEfficiencyRatio
		},
		detail: func(p Policy, n models.FlatNode) string {
			return fmt.Sprintf("%d:1 token ratio. High context overhead for output produced.", TokenRatio(n.Tokens.Total(), n.DiffTokens))
		},
	},
	{
		kind:     models.FindingOutputHeavy,
		severity: models.SeverityInfo,
		match: func(p Policy, n models.FlatNode) bool {
			return n.Tokens.Output > n.Tokens.Input && n.Tokens.Output > p.OutputHeavyMinTokens
		},
		detail: func(p Policy, n models.FlatNode) string {
			return fmt.Sprintf("%s output vs %s input. Unusually verbose generation.",
				FormatCount(n.Tokens.Output), FormatCount(n.Tokens.Input))
		},
	},
	{
		kind:     models.FindingLongRunning,
		severity: models.SeverityInfo,
		match: func(p Policy, n models.FlatNode) bool {
			return n.Duration != nil && *n.Duration > p.LongRunning.Milliseconds()
		},
		detail: func(p Policy, n models.FlatNode) string {
			return fmt.Sprintf("%s duration. May indicate stuck or slow processing.", FormatDuration(*n.Duration))
		},
	},
}

// Detect evaluates every rule. Per-node findings come first in flatten
// order, followed by the tree-wide rules. root may be nil, in which case
// only rules that need nothing beyond flat are evaluated.
func (d *Detector) Detect(flat []models.FlatNode, root *models.Node) []models.Finding {
	p := d.policy
	findings := []models.Finding{}

	for _, n := range flat {
		readOnly := p.IsReadOnly(n.Agent)
		for _, r := range nodeRules {
			if r.readOnlyExempt && readOnly {
				continue
			}
			if !r.match(p, n) {
				continue
			}
			agent := agentLabel(n.Agent)
			findings = append(findings, models.Finding{
				Type:      r.kind,
				Title:     r.kind.Title(),
				Severity:  r.severity,
				Subject:   n.ID,
				SessionID: n.ID,
				Agent:     agent,
				Detail:    fmt.Sprintf("%s: %s", agent, r.detail(p, n)),
			})
		}
	}

	rootID := ""
	if root != nil {
		rootID = root.ID
	} else if len(flat) > 0 {
		rootID = flat[0].ID
	}

	contextNodes := 0
	for _, n := range flat {
		if n.Agent == p.ContextAgent {
			contextNodes++
		}
	}
	if contextNodes > p.DuplicateContextMax {
		findings = append(findings, treeFinding(models.FindingDuplicateContext, models.SeverityWarn, p.ContextAgent,
			fmt.Sprintf("%s invoked %d times. Consider context caching.", p.ContextAgent, contextNodes),
			func(f *models.Finding) {
				f.Agent = p.ContextAgent
				f.Count = contextNodes
			}))
	}

	if root != nil {
		findings = append(findings, d.toolFindings(root)...)
	}

	if depth := MaxDepth(flat); depth > p.MaxDelegationDepth {
		findings = append(findings, treeFinding(models.FindingDeepDelegation, models.SeverityWarn, rootID,
			fmt.Sprintf("%d levels of agent nesting. May indicate over-decomposition or delegation loops.", depth),
			func(f *models.Finding) { f.Count = depth }))
	}

	if root != nil && root.HumanMessages > p.MaxHumanMessages {
		findings = append(findings, treeFinding(models.FindingHighIntervention, models.SeverityInfo, rootID,
			fmt.Sprintf("%d human inputs during session. May indicate unclear requirements or agent confusion.", root.HumanMessages),
			func(f *models.Finding) { f.Count = root.HumanMessages }))
	}

	if root != nil && len(root.InefficientReads) > 0 {
		findings = append(findings, inefficientReadFinding(rootID, root.InefficientReads))
	}

	return findings
}

func (d *Detector) toolFindings(root *models.Node) []models.Finding {
	p := d.policy
	tools := make([]string, 0, len(root.ToolStats))
	var total int64
	for name, stats := range root.ToolStats {
		tools = append(tools, name)
		total += stats.Tokens()
	}
	sort.Strings(tools)

	var findings []models.Finding
	for _, name := range tools {
		stats := root.ToolStats[name]
		tokens := stats.Tokens()
		if total > p.ToolDominanceMinTokens && float64(tokens)/float64(total) > p.ToolDominanceShare {
			share := round(float64(tokens) / float64(total) * 100)
			findings = append(findings, treeFinding(models.FindingToolDominance, models.SeverityInfo, name,
				fmt.Sprintf("%s: %d%% of tool tokens (%s). May indicate over-reliance.", name, share, FormatCount(tokens)),
				func(f *models.Finding) {
					f.Tool = name
					f.Tokens = tokens
				}))
		}
		if tokens > p.ExpensiveToolTokens {
			findings = append(findings, treeFinding(models.FindingExpensiveTool, models.SeverityWarn, name,
				fmt.Sprintf("%s: %s tokens across %d calls. Consider optimizing usage.", name, FormatCount(tokens), stats.Calls),
				func(f *models.Finding) {
					f.Tool = name
					f.Tokens = tokens
					f.Count = stats.Calls
				}))
		}
	}
	return findings
}

// ReadsByAgent tallies inefficient reads per agent, sorted by agent name.
func ReadsByAgent(reads []models.InefficientRead) []models.AgentReadTally {
	index := make(map[string]int)
	var tallies []models.AgentReadTally
	for _, r := range reads {
		agent := agentLabel(r.Agent)
		i, ok := index[agent]
		if !ok {
			i = len(tallies)
			index[agent] = i
			tallies = append(tallies, models.AgentReadTally{Agent: agent})
		}
		tallies[i].Count++
		tallies[i].Tokens += r.Tokens
	}
	sort.Slice(tallies, func(i, j int) bool { return tallies[i].Agent < tallies[j].Agent })
	return tallies
}

func inefficientReadFinding(rootID string, reads []models.InefficientRead) models.Finding {
	var total int64
	for _, r := range reads {
		total += r.Tokens
	}
	tallies := ReadsByAgent(reads)
	parts := make([]string, 0, len(tallies))
	for _, t := range tallies {
		parts = append(parts, fmt.Sprintf("%s: %d", t.Agent, t.Count))
	}
	return treeFinding(models.FindingInefficientRead, models.SeverityWarn, rootID,
		fmt.Sprintf("%d full-file reads without offset/limit (%s tokens). %s. Use partial reads to reduce context.",
			len(reads), FormatCount(total), strings.Join(parts, ", ")),
		func(f *models.Finding) {
			f.Count = len(reads)
			f.Tokens = total
			f.ByAgent = tallies
		})
}

func treeFinding(kind models.FindingType, severity models.Severity, subject, detail string, with func(*models.Finding)) models.Finding {
	f := models.Finding{
		Type:     kind,
		Title:    kind.Title(),
		Severity: severity,
		Subject:  subject,
		Detail:   detail,
	}
	if with != nil {
		with(&f)
	}
	return f
}

func agentLabel(agent string) string {
	if agent == "" {
		return models.UnknownAgent
	}
	return agent
}

// SortBySeverity orders findings most urgent first, keeping discovery order
// within a severity.
func SortBySeverity(findings []models.Finding) []models.Finding {
	out := append([]models.Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity.Rank() > out[j].Severity.Rank() })
	return out
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []models.Finding) map[models.Severity]int {
	counts := make(map[models.Severity]int, 3)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
