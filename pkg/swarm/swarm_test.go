package swarm

import (
	"path/filepath"
	"strings"
	"testing"

	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, ".opencode/requirements/REQ-001.md",
		"---\ntitle: Login\nstatus: approved\n---\n"+strings.Repeat("a", 250))
	testutil.WriteFile(t, dir, ".opencode/requirements/notes.txt", "ignored")
	testutil.WriteFile(t, dir, ".opencode/designs/DES-001.md", "---\ntitle: Auth design\n---\nbody")
	testutil.WriteFile(t, dir, ".opencode/tasks/TASKS-001.md", `---
title: Login tasks
---
- [x] 1: Scaffold handler (coder)
- [ ] **1.1**: Add tests (tester)
* [X] 2. Review
- [ ] unnumbered item
`)
	testutil.WriteFile(t, dir, ".opencode/plans/plan.md", "# Plan\n- [ ] 3: Ship it\n")
	testutil.WriteFile(t, dir, ".opencode/context/repo.md", "no front matter")
	testutil.WriteFile(t, dir, ".opencode/validations/TASK-001/01-lint.md", "---\nresult: pass\n---\n")
	testutil.WriteFile(t, dir, ".opencode/validations/TASK-001/02-test.md", "---\nresult: fail\n---\n")
	testutil.WriteFile(t, dir, ".opencode/validations/stray.md", "not a task dir")

	a, err := Load(dir)
	require.NoError(t, err)

	require.Len(t, a.Requirements, 1)
	req := a.Requirements[0]
	assert.Equal(t, "REQ-001.md", req.File)
	assert.Equal(t, ".opencode/requirements/REQ-001.md", req.Path)
	assert.Equal(t, "Login", req.Meta["title"])
	assert.Len(t, req.Preview, PreviewBytes)

	require.Len(t, a.Designs, 1)
	assert.Equal(t, "Auth design", a.Designs[0].Meta["title"])

	require.Len(t, a.Tasks, 2)
	tasks := a.Tasks[0]
	assert.Equal(t, ".opencode/tasks/TASKS-001.md", tasks.Path)
	assert.Equal(t, []TaskItem{
		{ID: "1", Done: true, Title: "Scaffold handler", Agent: "coder"},
		{ID: "1.1", Done: false, Title: "Add tests", Agent: "tester"},
		{ID: "2", Done: true, Title: "Review"},
	}, tasks.Items)
	assert.Equal(t, 2, tasks.Done())
	assert.Equal(t, ".opencode/plans/plan.md", a.Tasks[1].Path)
	assert.Len(t, a.Tasks[1].Items, 1)

	require.Len(t, a.Context, 1)
	assert.Nil(t, a.Context[0].Meta)

	require.Len(t, a.Validations, 1)
	assert.Equal(t, "TASK-001", a.Validations[0].TaskID)
	require.Len(t, a.Validations[0].Phases, 2)
	assert.Equal(t, "01-lint.md", a.Validations[0].Phases[0].File)
	assert.Equal(t, "fail", a.Validations[0].Phases[1].Meta["result"])
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, swerrors.ErrCodeArtifactsNotFound, swerrors.GetCode(err))
}

func TestLoadEmpty(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, ".opencode/.keep", "")

	a, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, a.Requirements)
	assert.NotNil(t, a.Tasks)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, ".opencode/designs/d.md", "design")
	testutil.WriteFile(t, dir, "secret.txt", "secret")

	data, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "design", string(data))

	for _, p := range []string{
		filepath.Join(dir, "secret.txt"),
		filepath.Join(dir, ".opencode/../secret.txt"),
	} {
		_, err := ReadFile(p)
		assert.Equal(t, swerrors.ErrCodeForbiddenPath, swerrors.GetCode(err), p)
	}

	_, err = ReadFile(filepath.Join(dir, ".opencode/missing.md"))
	require.Error(t, err)
	assert.NotEqual(t, swerrors.ErrCodeForbiddenPath, swerrors.GetCode(err))
}

func TestPreviewKeepsRunes(t *testing.T) {
	body := strings.Repeat("a", PreviewBytes-1) + "é"
	p := preview(body)
	assert.Equal(t, strings.Repeat("a", PreviewBytes-1), p)
}
