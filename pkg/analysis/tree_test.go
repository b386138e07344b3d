package analysis_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioA() *storage.MemoryStore {
	s := storage.NewMemoryStore()
	addSession(s, "root", "", 1000)
	s.AddMessage(models.Message{ID: "m1", SessionID: "root", Role: models.RoleUser, Title: "Add login", Created: 1000})
	s.AddMessage(models.Message{
		ID: "m2", SessionID: "root", Role: models.RoleAssistant, Agent: "coder",
		Created: 2000, Completed: 5000,
		Tokens: &models.TokenUsage{Input: 1000, Output: 300},
		Diffs:  []models.Diff{{File: "auth.go", Additions: 20}},
	})
	return s
}

func TestBuildTreeSingleDiffRoot(t *testing.T) {
	root := analysis.NewBuilder(scenarioA()).BuildTree(context.Background(), project, "root")
	require.NotNil(t, root)

	assert.Equal(t, 1, root.Diffs)
	assert.Equal(t, int64(200), root.DiffTokens)
	assert.Equal(t, 1, root.HumanMessages)
	assert.Empty(t, root.Children)
	assert.Equal(t, 2, root.Messages)
	assert.Equal(t, models.Tokens{Input: 1002, Output: 302, Estimated: true}, root.Tokens)
	require.NotNil(t, root.Duration)
	assert.Equal(t, int64(4000), *root.Duration)

	// human marker, the human message itself, the assistant message
	require.Len(t, root.Timeline, 3)
	assert.Equal(t, models.HumanAgent, root.Timeline[0].Agent)
	assert.Equal(t, int64(200), root.Timeline[2].DiffTokens)
	assert.Equal(t, int64(1300), root.Timeline[2].Tokens)

	coder := root.Agents["coder"]
	assert.Equal(t, 1, coder.Messages)
	assert.Equal(t, 1, coder.Diffs)
	assert.Equal(t, int64(200), coder.DiffTokens)
	assert.False(t, coder.Tokens.Estimated)
	assert.True(t, root.Agents[models.UnknownAgent].Tokens.Estimated)

	assert.Equal(t, models.FileStats{Additions: 20, Agents: []string{"coder"}}, root.Files["auth.go"])

	findings := analysis.DetectWaste(analysis.Flatten(root), root)
	assert.Empty(t, findings)
}

func TestBuildTreeMissingRoot(t *testing.T) {
	assert.Nil(t, analysis.NewBuilder(storage.NewMemoryStore()).BuildTree(context.Background(), project, "nope"))
}

func mergeFixture() *storage.MemoryStore {
	s := storage.NewMemoryStore()
	addSession(s, "root", "", 1000)
	addSession(s, "child", "root", 1500)
	addSession(s, "grandchild", "child", 1600)

	s.AddMessage(models.Message{ID: "r1", SessionID: "root", Role: models.RoleUser, Agent: "orchestrator", Created: 1000})
	s.AddMessage(models.Message{
		ID: "r2", SessionID: "root", Role: models.RoleAssistant, Agent: "orchestrator", Created: 9000,
		Tokens: &models.TokenUsage{Input: 50, Output: 5},
	})
	s.AddMessage(models.Message{
		ID: "c1", SessionID: "child", Role: models.RoleUser, Agent: "coder", Created: 2000,
	})
	s.AddMessage(models.Message{
		ID: "c2", SessionID: "child", Role: models.RoleAssistant, Agent: "coder", Created: 3000, Completed: 4000,
		Tokens: &models.TokenUsage{Input: 400, Output: 40},
		Diffs: []models.Diff{
			{File: "main.go", Additions: 3, Deletions: 1},
			{File: "/repo/.opencode/tasks/login.md", Additions: 2},
		},
	})
	s.AddToolRecord(toolRecord("c2", "read", map[string]interface{}{"filePath": "/repo/main.go"}, "package main", 3100, 3200))
	s.AddToolRecord(toolRecord("c2", "edit", map[string]interface{}{"filePath": "/repo/main.go"}, "ok", 3300, 3400))
	s.AddMessage(models.Message{
		ID: "g1", SessionID: "grandchild", Role: models.RoleAssistant, Agent: "validator", Created: 5000,
		Diffs: []models.Diff{{File: "/repo/.opencode/validations/1/phase.md", Additions: 1}},
	})
	s.AddToolRecord(toolRecord("g1", "read", map[string]interface{}{"filePath": "/repo/a.go", "limit": 20}, "x", 5100, 5150))
	return s
}

func TestBuildTreeMergesChildren(t *testing.T) {
	root := analysis.NewBuilder(mergeFixture()).BuildTree(context.Background(), project, "root")
	require.NotNil(t, root)
	require.Len(t, root.Children, 1)
	child := root.Children[0]
	require.Len(t, child.Children, 1)
	grandchild := child.Children[0]

	assert.Equal(t, "orchestrator", root.Agent)
	assert.Equal(t, 0, root.Diffs, "diff counts stay with their node")
	assert.Len(t, root.Agents, 1)
	assert.Empty(t, root.Files)
	assert.Equal(t, 1, root.HumanMessages, "only root human messages count")

	// 3 added lines + 2 in child, 1 in grandchild
	assert.Equal(t, int64(60), root.DiffTokens)
	assert.Equal(t, int64(60), child.DiffTokens)
	assert.Equal(t, int64(10), grandchild.DiffTokens)

	assert.Equal(t, []string{
		"/repo/.opencode/tasks/login.md",
		"/repo/.opencode/validations/1/phase.md",
	}, root.ReferencedFiles)
	assert.Equal(t, []string{"/repo/.opencode/validations/1/phase.md"}, grandchild.ReferencedFiles)

	assert.Equal(t, 2, root.ToolStats["read"].Calls)
	assert.Equal(t, 1, root.ToolStats["edit"].Calls)
	assert.Equal(t, 3, root.ToolCalls)
	assert.Equal(t, int64(150), root.ToolStats["read"].Duration)

	require.Len(t, root.InefficientReads, 1)
	assert.Equal(t, models.InefficientRead{File: "/repo/main.go", Agent: "coder", Tokens: 4}, root.InefficientReads[0])

	assert.Equal(t, child.Tokens.Input+int64(50), root.Tokens.Input)
	assert.True(t, root.Tokens.Estimated)

	for i := 1; i < len(root.FlameEvents); i++ {
		assert.LessOrEqual(t, root.FlameEvents[i-1].Start, root.FlameEvents[i].Start)
	}
	assert.Len(t, root.FlameEvents, 4, "three tools and one completed agent message")
}

func TestTreeProperties(t *testing.T) {
	store := mergeFixture()
	b := analysis.NewBuilder(store)
	ctx := context.Background()
	root := b.BuildTree(ctx, project, "root")
	require.NotNil(t, root)

	walk(root, func(n *models.Node) {
		msgs := store.ListMessages(ctx, n.ID)
		diffs := 0
		for _, m := range msgs {
			diffs += len(m.Diffs)
		}
		assert.Equal(t, diffs, n.Diffs, "diff count of %s", n.ID)

		for i := 1; i < len(n.Timeline); i++ {
			assert.LessOrEqual(t, n.Timeline[i-1].Time, n.Timeline[i].Time, "timeline of %s", n.ID)
		}
	})

	assert.Equal(t, root, b.BuildTree(ctx, project, "root"), "rebuilding unchanged data is idempotent")
}

func TestStickyEstimation(t *testing.T) {
	s := storage.NewMemoryStore()
	addSession(s, "root", "", 1)
	addSession(s, "child", "root", 2)
	addMessages(s, "root", "coder", 2, 1000)
	addMessages(s, "child", "coder", 2, 2000)

	b := analysis.NewBuilder(s)
	root := b.BuildTree(context.Background(), project, "root")
	require.NotNil(t, root)
	assert.False(t, root.Tokens.Estimated)

	s.AddMessage(models.Message{ID: "est", SessionID: "child", Role: models.RoleAssistant, Agent: "coder", Created: 9000})
	root = b.BuildTree(context.Background(), project, "root")
	assert.True(t, root.Tokens.Estimated)
	assert.True(t, root.Children[0].Tokens.Estimated)
}

func TestOrphanAndMissingChildren(t *testing.T) {
	s := storage.NewMemoryStore()
	addSession(s, "root", "", 1)
	addSession(s, "child", "root", 2)
	addSession(s, "orphan", "ghost-parent", 3)
	addMessages(s, "child", "coder", 1, 1000)

	src := childInjector{MemoryStore: s, parent: "root", ghost: models.Session{ID: "ghost", ParentID: "root"}}
	root := analysis.NewBuilder(src).BuildTree(context.Background(), project, "root")
	require.NotNil(t, root)

	var ids []string
	walk(root, func(n *models.Node) { ids = append(ids, n.ID) })
	assert.Equal(t, []string{"root", "child"}, ids)
}

func TestCyclicParentsTerminate(t *testing.T) {
	s := storage.NewMemoryStore()
	s.AddSession(models.Session{ID: "a", ProjectID: project, ParentID: "b"})
	s.AddSession(models.Session{ID: "b", ProjectID: project, ParentID: "a"})
	addMessages(s, "a", "coder", 1, 1000)
	addMessages(s, "b", "coder", 1, 2000)

	root := analysis.NewBuilder(s).BuildTree(context.Background(), project, "a")
	require.NotNil(t, root)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "b", root.Children[0].ID)
	assert.Empty(t, root.Children[0].Children)
}

func TestParallelBuildMatchesSerial(t *testing.T) {
	s := storage.NewMemoryStore()
	addSession(s, "root", "", 1)
	addMessages(s, "root", "orchestrator", 3, 1000)
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("child-%02d", i)
		addSession(s, id, "root", int64(100+i))
		addMessages(s, id, "coder", i+1, int64(10000*(i+1)))
		for j := 0; j < 3; j++ {
			gid := fmt.Sprintf("%s-g%d", id, j)
			addSession(s, gid, id, int64(1000+j))
			addMessages(s, gid, "validator", 2, int64(20000*(i+1)+j))
			s.AddToolRecord(toolRecord(gid+"-m0", "read", map[string]string{"filePath": gid}, "body", 1, 2))
		}
	}

	ctx := context.Background()
	serial := analysis.NewBuilder(s).BuildTree(ctx, project, "root")
	parallel := analysis.NewBuilder(s, analysis.WithParallel(3)).BuildTree(ctx, project, "root")
	require.NotNil(t, serial)
	assert.Equal(t, serial, parallel)
	assert.Len(t, parallel.Children, 12)
	assert.Len(t, parallel.InefficientReads, 36)
}

func TestCancelledContextReturnsPartialTree(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := analysis.NewBuilder(mergeFixture()).BuildTree(ctx, project, "root")
	require.NotNil(t, root)
	assert.Empty(t, root.Children)
	assert.Equal(t, 2, root.Messages)
}

func TestPlanningPatternsWidenReferencedFiles(t *testing.T) {
	s := storage.NewMemoryStore()
	addSession(s, "root", "", 1)
	s.AddMessage(models.Message{
		ID: "m", SessionID: "root", Role: models.RoleAssistant, Agent: "planner", Created: 1,
		Diffs: []models.Diff{{File: "docs/plans/q3.md", Additions: 1}, {File: "src/main.go", Additions: 1}},
	})

	pm, err := analysis.NewPlanningMatcher([]string{"docs/plans"})
	require.NoError(t, err)

	root := analysis.NewBuilder(s, analysis.WithPlanningMatcher(pm)).BuildTree(context.Background(), project, "root")
	assert.Equal(t, []string{"docs/plans/q3.md"}, root.ReferencedFiles)

	root = analysis.NewBuilder(s).BuildTree(context.Background(), project, "root")
	assert.Empty(t, root.ReferencedFiles)
}

func TestFlatten(t *testing.T) {
	root := analysis.NewBuilder(mergeFixture()).BuildTree(context.Background(), project, "root")
	flat := analysis.Flatten(root)

	require.Len(t, flat, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{flat[0].Depth, flat[1].Depth, flat[2].Depth})
	assert.Equal(t, "child", flat[1].ID)
	assert.Equal(t, 1, flat[0].ChildCount)
	assert.Nil(t, flat[0].Children)
	assert.Len(t, root.Children, 1, "flattening leaves the tree intact")
	assert.Equal(t, 2, analysis.MaxDepth(flat))
	assert.Nil(t, analysis.Flatten(nil))
}
