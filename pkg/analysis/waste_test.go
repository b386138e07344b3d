package analysis_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatNode(id, agent string, messages, diffs, children int) models.FlatNode {
	return models.FlatNode{
		Node:       models.Node{ID: id, Agent: agent, Messages: messages, Diffs: diffs},
		ChildCount: children,
	}
}

func int64p(v int64) *int64 { return &v }

func TestNodeRules(t *testing.T) {
	tests := []struct {
		name string
		node models.FlatNode
		want []models.FindingType
	}{
		{
			name: "quiet node",
			node: flatNode("s", "coder", 10, 3, 0),
			want: []models.FindingType{},
		},
		{
			name: "abandoned",
			node: flatNode("s", "coder", 2, 0, 0),
			want: []models.FindingType{models.FindingAbandoned},
		},
		{
			name: "abandoned needs no children",
			node: flatNode("s", "coder", 1, 0, 1),
			want: []models.FindingType{},
		},
		{
			name: "wasted compute",
			node: flatNode("s", "coder", 6, 0, 0),
			want: []models.FindingType{models.FindingWastedCompute},
		},
		{
			name: "excessive and wasted",
			node: flatNode("s", "coder", 41, 0, 0),
			want: []models.FindingType{models.FindingExcessive, models.FindingWastedCompute},
		},
		{
			name: "read-only agents are exempt",
			node: flatNode("s", "orchestrator", 60, 0, 0),
			want: []models.FindingType{},
		},
		{
			name: "missing agent is not read-only",
			node: flatNode("s", "", 1, 0, 0),
			want: []models.FindingType{models.FindingAbandoned},
		},
		{
			name: "low efficiency",
			node: func() models.FlatNode {
				n := flatNode("s", "coder", 10, 1, 0)
				n.Tokens = models.Tokens{Input: 5000, Output: 100}
				n.DiffTokens = 100
				return n
			}(),
			want: []models.FindingType{models.FindingLowEfficiency},
		},
		{
			name: "ratio of exactly fifty is fine",
			node: func() models.FlatNode {
				n := flatNode("s", "coder", 10, 1, 0)
				n.Tokens = models.Tokens{Input: 5000}
				n.DiffTokens = 100
				return n
			}(),
			want: []models.FindingType{},
		},
		{
			name: "output heavy applies to read-only agents",
			node: func() models.FlatNode {
				n := flatNode("s", "validator", 10, 0, 0)
				n.Tokens = models.Tokens{Input: 1000, Output: 6000}
				return n
			}(),
			want: []models.FindingType{models.FindingOutputHeavy},
		},
		{
			name: "long running",
			node: func() models.FlatNode {
				n := flatNode("s", "validator", 3, 0, 0)
				n.Duration = int64p((31 * time.Minute).Milliseconds())
				return n
			}(),
			want: []models.FindingType{models.FindingLongRunning},
		},
		{
			name: "unknown duration never runs long",
			node: flatNode("s", "validator", 3, 0, 0),
			want: []models.FindingType{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := analysis.DetectWaste([]models.FlatNode{tt.node}, nil)
			assert.Equal(t, tt.want, findingTypes(findings))
			for _, f := range findings {
				assert.Equal(t, "s", f.Subject)
				assert.Equal(t, f.Type.Title(), f.Title)
			}
		})
	}
}

func TestExcessiveIterationDespiteDiffs(t *testing.T) {
	s := storage.NewMemoryStore()
	addSession(s, "impl", "", 1)
	for i := 0; i < 45; i++ {
		m := models.Message{
			ID: fmt.Sprintf("m%02d", i), SessionID: "impl", Role: models.RoleAssistant,
			Agent: "coder", Created: int64(1000 + i),
		}
		if i < 2 {
			m.Diffs = []models.Diff{{File: fmt.Sprintf("f%d.go", i), Additions: 1}}
		}
		s.AddMessage(m)
	}

	root := analysis.NewBuilder(s).BuildTree(context.Background(), project, "impl")
	require.NotNil(t, root)
	findings := analysis.DetectWaste(analysis.Flatten(root), root)

	types := findingTypes(findings)
	assert.Contains(t, types, models.FindingExcessive)
	assert.NotContains(t, types, models.FindingWastedCompute)

	for _, f := range findings {
		if f.Type == models.FindingExcessive {
			assert.Equal(t, models.SeveritySevere, f.Severity)
			assert.Equal(t, "coder: 45 msgs for 2 diffs (22.5 msgs/diff). Possible micromanagement or thrashing.", f.Detail)
		}
	}
}

func TestDuplicateContextFiresOnce(t *testing.T) {
	s := storage.NewMemoryStore()
	addSession(s, "root", "", 1)
	addMessages(s, "root", "orchestrator", 3, 1000)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("pk%d", i)
		addSession(s, id, "root", int64(10+i))
		addMessages(s, id, "project-knowledge", 1, int64(5000+i*100))
	}

	root := analysis.NewBuilder(s).BuildTree(context.Background(), project, "root")
	findings := analysis.DetectWaste(analysis.Flatten(root), root)

	require.Equal(t, 1, countType(findings, models.FindingDuplicateContext))
	assert.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, models.SeverityWarn, f.Severity)
	assert.Equal(t, "project-knowledge", f.Subject)
	assert.Equal(t, 3, f.Count)
}

func TestUnboundedReadIsInefficient(t *testing.T) {
	s := storage.NewMemoryStore()
	addSession(s, "root", "", 1)
	addMessages(s, "root", "coder", 1, 1000)
	// 199998 characters serialize to 200000 bytes: 50000 tokens
	s.AddToolRecord(toolRecord("root-m0", "read", map[string]string{"filePath": "/repo/big.go"},
		strings.Repeat("a", 199998), 1000, 2000))

	root := analysis.NewBuilder(s).BuildTree(context.Background(), project, "root")
	findings := analysis.DetectWaste(analysis.Flatten(root), root)

	require.Equal(t, 1, countType(findings, models.FindingInefficientRead))
	var read models.Finding
	for _, f := range findings {
		if f.Type == models.FindingInefficientRead {
			read = f
		}
	}
	assert.Equal(t, models.SeverityWarn, read.Severity)
	assert.Equal(t, int64(50000), read.Tokens)
	assert.Equal(t, []models.AgentReadTally{{Agent: "coder", Count: 1, Tokens: 50000}}, read.ByAgent)
	assert.Equal(t, "1 full-file reads without offset/limit (50.0k tokens). coder: 1. Use partial reads to reduce context.", read.Detail)
}

func TestToolRules(t *testing.T) {
	root := &models.Node{
		ID: "root",
		ToolStats: map[string]models.ToolStats{
			"bash": {Calls: 3, InputTokens: 1000, OutputTokens: 1000},
			"read": {Calls: 20, InputTokens: 1000, OutputTokens: 119000},
		},
	}
	flat := analysis.Flatten(root)
	flat[0].Agent = "orchestrator"

	findings := analysis.DetectWaste(flat, root)
	assert.Equal(t, []models.FindingType{models.FindingToolDominance, models.FindingExpensiveTool}, findingTypes(findings))
	assert.Equal(t, "read", findings[0].Subject)
	assert.Equal(t, "read: 98% of tool tokens (120.0k). May indicate over-reliance.", findings[0].Detail)
	assert.Equal(t, 20, findings[1].Count)

	small := &models.Node{ID: "root", ToolStats: map[string]models.ToolStats{"read": {Calls: 1, OutputTokens: 9000}}}
	flat = analysis.Flatten(small)
	flat[0].Agent = "orchestrator"
	assert.Empty(t, analysis.DetectWaste(flat, small), "dominance needs enough tool volume")
}

func TestTreeWideRules(t *testing.T) {
	s := storage.NewMemoryStore()
	parent := ""
	for i := 0; i <= 5; i++ {
		id := fmt.Sprintf("d%d", i)
		addSession(s, id, parent, int64(i))
		addMessages(s, id, "orchestrator", 1, int64(1000*(i+1)))
		parent = id
	}
	for i := 0; i < 6; i++ {
		s.AddMessage(models.Message{
			ID: fmt.Sprintf("h%d", i), SessionID: "d0", Role: models.RoleUser,
			Agent: "orchestrator", Created: int64(100 + i),
		})
	}

	root := analysis.NewBuilder(s).BuildTree(context.Background(), project, "d0")
	findings := analysis.DetectWaste(analysis.Flatten(root), root)

	assert.Equal(t, []models.FindingType{models.FindingDeepDelegation, models.FindingHighIntervention}, findingTypes(findings))
	assert.Equal(t, 5, findings[0].Count)
	assert.Equal(t, "d0", findings[0].Subject)
	assert.Equal(t, 6, findings[1].Count)
}

func TestPolicyOverride(t *testing.T) {
	node := flatNode("s", "coder", 12, 4, 0)

	assert.Empty(t, analysis.DetectWaste([]models.FlatNode{node}, nil))

	p := analysis.DefaultPolicy()
	p.ExcessiveMessages = 10
	findings := analysis.NewDetector(p).Detect([]models.FlatNode{node}, nil)
	assert.Equal(t, []models.FindingType{models.FindingExcessive}, findingTypes(findings))

	p = analysis.DefaultPolicy()
	p.ReadOnlyAgents = append(p.ReadOnlyAgents, "coder")
	p.ExcessiveMessages = 10
	assert.Empty(t, analysis.NewDetector(p).Detect([]models.FlatNode{node}, nil))
}

func TestDetectIsDeterministic(t *testing.T) {
	root := analysis.NewBuilder(mergeFixture()).BuildTree(context.Background(), project, "root")
	flat := analysis.Flatten(root)

	first := analysis.DetectWaste(flat, root)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, analysis.DetectWaste(flat, root))
	}
}

func TestSeverityHelpers(t *testing.T) {
	findings := []models.Finding{
		{Type: models.FindingOutputHeavy, Severity: models.SeverityInfo},
		{Type: models.FindingAbandoned, Severity: models.SeverityWarn},
		{Type: models.FindingExcessive, Severity: models.SeveritySevere},
		{Type: models.FindingInefficientRead, Severity: models.SeverityWarn},
	}

	sorted := analysis.SortBySeverity(findings)
	assert.Equal(t, []models.FindingType{
		models.FindingExcessive,
		models.FindingAbandoned,
		models.FindingInefficientRead,
		models.FindingOutputHeavy,
	}, findingTypes(sorted))
	assert.Equal(t, models.FindingOutputHeavy, findings[0].Type, "input is not reordered")

	counts := analysis.CountBySeverity(findings)
	assert.Equal(t, 1, counts[models.SeveritySevere])
	assert.Equal(t, 2, counts[models.SeverityWarn])
	assert.Equal(t, 1, counts[models.SeverityInfo])
}

func TestReadsByAgent(t *testing.T) {
	tallies := analysis.ReadsByAgent([]models.InefficientRead{
		{Agent: "coder", Tokens: 10},
		{Agent: "", Tokens: 5},
		{Agent: "coder", Tokens: 7},
	})
	assert.Equal(t, []models.AgentReadTally{
		{Agent: "coder", Count: 2, Tokens: 17},
		{Agent: "unknown", Count: 1, Tokens: 5},
	}, tallies)
}
