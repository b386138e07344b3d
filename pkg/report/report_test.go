package report

import (
	"strings"
	"testing"

	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *models.Node {
	dur := int64(90000)
	child := &models.Node{
		ID:       "ses_child_0123456789",
		Agent:    "coder",
		Messages: 3,
		Diffs:    1,
		Agents: map[string]models.AgentStats{
			"coder": {Messages: 3, Diffs: 1, Tokens: models.Tokens{Input: 900, Output: 100}, DiffTokens: 100},
		},
		Tokens:     models.Tokens{Input: 900, Output: 100},
		DiffTokens: 100,
	}
	return &models.Node{
		ID:            "ses_root",
		Title:         "Ship login",
		Agent:         "orchestrator",
		Messages:      2,
		HumanMessages: 1,
		Agents: map[string]models.AgentStats{
			"orchestrator": {Messages: 2, Tokens: models.Tokens{Input: 100}},
		},
		Children:   []*models.Node{child},
		Duration:   &dur,
		Tokens:     models.Tokens{Input: 1000, Output: 100},
		DiffTokens: 100,
		ToolStats: map[string]models.ToolStats{
			"read": {Calls: 2, InputTokens: 10, OutputTokens: 290, Duration: 40},
			"bash": {Calls: 1, InputTokens: 50, OutputTokens: 50, Duration: 900},
		},
		FlameEvents: []models.FlameEvent{
			{Type: models.FlameTool, Name: "read", Start: 1000, End: 1040, Agent: "coder", Args: map[string]interface{}{"filePath": "a.go"}},
			{Type: models.FlameAgent, Name: "coder", Start: 1000, End: 3000},
		},
	}
}

func TestAIReport(t *testing.T) {
	tree := sampleTree()
	findings := []models.Finding{{
		Type: models.FindingAbandoned, Severity: models.SeverityWarn, Agent: "coder",
		SessionID: "ses_child_0123456789", Detail: "coder: 1 msgs, 0 diffs.",
	}}

	out := AIReport(tree, findings)

	assert.Contains(t, out, "<title>Ship login</title>")
	assert.Contains(t, out, "<sessions>2</sessions>")
	assert.Contains(t, out, "<messages>5</messages>")
	assert.Contains(t, out, "<token_ratio>11:1</token_ratio>")
	assert.Contains(t, out, "<duration_ms>90000</duration_ms>")
	assert.Contains(t, out, "| Ship login | orchestrator | 2 | 0 | 1000 | 100 | 11:1 |")
	assert.Contains(t, out, "|   ses_chil | coder | 3 | 1 | 900 | 100 | 10:1 |")
	assert.Contains(t, out, `<agent name="coder" calls="1" messages="3"`)
	assert.Contains(t, out, `<tools total_tokens="400" total_duration_ms="940">`)
	assert.Contains(t, out, `<tool name="read" calls="2" input_tokens="10" output_tokens="290" duration_ms="40" percent="75"/>`)
	assert.Contains(t, out, `<timeline events="2" start_ms="1000" agent_time_ms="2000" tool_time_ms="40">`)
	assert.Contains(t, out, `args="{&quot;filePath&quot;:&quot;a.go&quot;}"`)
	assert.Contains(t, out, `<warnings count="1">`)
	assert.Contains(t, out, `<warning type="abandoned_session" severity="warn" agent="coder" session="ses_child_0123456789">`)
	assert.Contains(t, out, "## Interpretation Guide")

	// coder has more messages and is listed first
	assert.Less(t, strings.Index(out, `<agent name="coder"`), strings.Index(out, `<agent name="orchestrator"`))
	assert.Less(t, strings.Index(out, `<tool name="read"`), strings.Index(out, `<tool name="bash"`))
}

func TestAIReportOmitsEmptySections(t *testing.T) {
	out := AIReport(&models.Node{ID: "x"}, nil)
	assert.Contains(t, out, "<title>x</title>")
	assert.NotContains(t, out, "<tools")
	assert.NotContains(t, out, "<timeline")
	assert.NotContains(t, out, "<warnings")
}

func TestNilTree(t *testing.T) {
	assert.Equal(t, NoData, AIReport(nil, nil))
	assert.Equal(t, NoData, Context(nil))
}

func TestContext(t *testing.T) {
	out := Context(sampleTree())
	assert.Contains(t, out, "# Session: Ship login")
	assert.Contains(t, out, "Sessions: 2 | Msgs: 5 | Diffs: 1 | Tokens: 1100 | Ratio: 11:1")
	assert.Contains(t, out, "- coder: 3 msgs, 1 diffs, 1000 tok")
}

func TestRender(t *testing.T) {
	out, err := Render("# Title\n\nSome **bold** text.", 60)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
}

func TestPercent(t *testing.T) {
	assert.Equal(t, int64(75), percent(300, 400))
	assert.Equal(t, int64(3), percent(25, 1000))
	assert.Equal(t, int64(98), percent(120000, 122000))
}
