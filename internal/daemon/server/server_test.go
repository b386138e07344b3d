package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/internal/daemon/engine"
	"github.com/grovetools/swarmstat/internal/daemon/store"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/daemon"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/profiling"
	"github.com/grovetools/swarmstat/pkg/report"
	"github.com/grovetools/swarmstat/pkg/storage"
	"github.com/grovetools/swarmstat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) *daemon.LocalClient {
	t.Helper()

	st := storage.NewMemoryStore()
	st.AddSession(models.Session{ID: "root", ProjectID: "proj", Title: "Build feature", Directory: "/work/proj", Created: 1000})
	st.AddSession(models.Session{ID: "child", ProjectID: "proj", ParentID: "root", Title: "Implement (@coder subagent)", Created: 2000})
	st.AddMessage(models.Message{ID: "m1", SessionID: "root", Role: models.RoleUser, Created: 1000})
	st.AddMessage(models.Message{
		ID: "m2", SessionID: "root", Role: models.RoleAssistant, Agent: "orchestrator", Created: 1100, Completed: 1500,
		Tokens: &models.TokenUsage{Input: 1200, Output: 300},
	})
	st.AddMessage(models.Message{
		ID: "m3", SessionID: "child", Role: models.RoleAssistant, Agent: "coder", Created: 2100, Completed: 2600,
		Tokens: &models.TokenUsage{Input: 800, Output: 200},
	})

	c, err := daemon.NewLocalClient(st, nil, nil)
	require.NoError(t, err)
	return c
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h := New(newFixture(t), nil).Handler()
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestProjectsAndSessions(t *testing.T) {
	h := New(newFixture(t), nil).Handler()

	rec := get(t, h, "/api/projects")
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "proj", projects[0].ID)
	assert.Equal(t, 2, projects[0].Sessions)

	rec = get(t, h, "/api/sessions/proj")
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	assert.Len(t, sessions, 2)

	rec = get(t, h, "/api/sessions/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var se swerrors.SwarmError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &se))
	assert.Equal(t, swerrors.ErrCodeProjectNotFound, se.Code)
}

func TestTreeEndpoints(t *testing.T) {
	h := New(newFixture(t), nil).Handler()

	rec := get(t, h, "/api/tree/proj/root")
	require.Equal(t, http.StatusOK, rec.Code)
	var tree models.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
	assert.Equal(t, "root", tree.ID)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "child", tree.Children[0].ID)

	rec = get(t, h, "/api/tree/proj/missing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = get(t, h, "/api/waste/proj/root")
	require.Equal(t, http.StatusOK, rec.Code)
	var findings []models.Finding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &findings))

	rec = get(t, h, "/api/waste/proj/missing")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = get(t, h, "/api/summary/proj/root")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary analysis.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Sessions)
	assert.Equal(t, 3, summary.Messages)
}

func TestReport(t *testing.T) {
	h := New(newFixture(t), nil).Handler()

	rec := get(t, h, "/ai?project=proj")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(swerrors.ErrCodeInvalidInput))

	rec = get(t, h, "/ai?project=proj&session=root")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "<session_summary>")

	rec = get(t, h, "/ai?project=proj&session=missing")
	assert.Equal(t, report.NoData, rec.Body.String())
}

func TestSwarmAndFile(t *testing.T) {
	dir := t.TempDir()
	reqPath := testutil.WriteFile(t, dir, ".opencode/requirements/login.md", "---\ntitle: Login\n---\nUsers can log in.")
	h := New(newFixture(t), nil).Handler()

	rec := get(t, h, "/api/swarm?dir="+url.QueryEscape(dir))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "login.md")

	// path form of the same request
	rec = get(t, h, "/api/swarm"+dir)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "login.md")

	rec = get(t, h, "/api/swarm?dir="+url.QueryEscape(t.TempDir()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = get(t, h, "/api/file?path="+url.QueryEscape(reqPath))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Users can log in.")

	rec = get(t, h, "/api/file?path="+url.QueryEscape(filepath.Join(dir, "secret.txt")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(t, h, "/api/file?path="+url.QueryEscape(filepath.Join(dir, ".opencode", "missing.md")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/api/file")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWatchedTreesServedFromStore(t *testing.T) {
	st := store.New()
	st.ApplyUpdate(store.Update{Type: store.UpdateTree, Payload: &store.Entry{
		Project:  "proj",
		Session:  "root",
		Tree:     &models.Node{ID: "root", Title: "cached"},
		Findings: []models.Finding{},
	}})
	st.ApplyUpdate(store.Update{Type: store.UpdateProjects, Payload: []models.Project{{ID: "proj", Live: true}}})

	srv := New(newFixture(t), nil)
	srv.SetEngine(engine.New(st, nil))
	srv.SetRunningConfig(&RunningConfig{Addr: "127.0.0.1:0", Backend: "file"})
	h := srv.Handler()

	var tree models.Node
	require.NoError(t, json.Unmarshal(get(t, h, "/api/tree/proj/root").Body.Bytes(), &tree))
	assert.Equal(t, "cached", tree.Title)

	var projects []models.Project
	require.NoError(t, json.Unmarshal(get(t, h, "/api/projects").Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.True(t, projects[0].Live)

	assert.Equal(t, http.StatusOK, get(t, h, "/api/state").Code)
	assert.Contains(t, get(t, h, "/api/config").Body.String(), `"backend":"file"`)
}

func TestStateWithoutEngine(t *testing.T) {
	h := New(newFixture(t), nil).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/state").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/config").Code)
}

func TestRemoteClientRoundTrip(t *testing.T) {
	ts := httptest.NewServer(New(newFixture(t), nil).Handler())
	defer ts.Close()

	rc := daemon.NewRemoteClient(ts.URL)
	defer rc.Close()
	ctx := context.Background()

	assert.True(t, rc.IsRunning())

	projects, err := rc.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	a, err := rc.Analyze(ctx, "proj", "root")
	require.NoError(t, err)
	require.True(t, a.Found())
	assert.Equal(t, 2, a.Summary.Sessions)

	a, err = rc.Analyze(ctx, "proj", "missing")
	require.NoError(t, err)
	assert.False(t, a.Found())
	assert.NotNil(t, a.Findings)

	md, err := rc.Report(ctx, "proj", "root")
	require.NoError(t, err)
	assert.Contains(t, md, "<session_summary>")

	_, err = rc.Sessions(ctx, "nope")
	assert.True(t, swerrors.Is(err, swerrors.ErrCodeProjectNotFound))

	_, err = rc.Swarm(ctx, t.TempDir())
	assert.True(t, swerrors.Is(err, swerrors.ErrCodeArtifactsNotFound))
}

func TestServeAndShutdown(t *testing.T) {
	srv := New(newFixture(t), nil)
	require.NoError(t, srv.Shutdown(context.Background()))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(listener) }()

	base := "http://" + listener.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "ok"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, <-errc)
}

func TestRequestsUseTheirOwnProfiler(t *testing.T) {
	defer profiling.Reset()
	profiling.Enable()

	h := New(newFixture(t), nil).Handler()
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			get(t, h, "/api/analysis/proj/root")
		}()
	}
	wg.Wait()

	var global bytes.Buffer
	profiling.Summarize(&global)
	assert.NotContains(t, global.String(), "analyze")
}
