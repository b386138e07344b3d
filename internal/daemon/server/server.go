// Package server provides the HTTP API of `swarmstat serve`.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/internal/daemon/engine"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/daemon"
	"github.com/grovetools/swarmstat/pkg/profiling"
	"github.com/grovetools/swarmstat/pkg/swarm"
	"github.com/sirupsen/logrus"
)

// RunningConfig describes the active server. It is exposed via the
// /api/config endpoint so clients can verify what is being served.
type RunningConfig struct {
	Addr        string    `json:"addr"`
	Backend     string    `json:"backend"`
	Watching    []string  `json:"watching,omitempty"`
	ConfigFiles []string  `json:"config_files,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// Server serves analytics over HTTP.
type Server struct {
	logger        *logrus.Entry
	mu            sync.Mutex
	server        *http.Server
	client        daemon.Client
	engine        *engine.Engine
	runningConfig *RunningConfig
}

// New creates a server answering queries through client.
func New(client daemon.Client, logger *logrus.Entry) *Server {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = logrus.NewEntry(l)
	}
	return &Server{
		client: client,
		logger: logger,
	}
}

// SetEngine sets the collector engine. Watched trees are then answered
// from its store instead of being rebuilt per request.
func (s *Server) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.runningConfig = cfg
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/projects", s.handleProjects)
	mux.HandleFunc("GET /api/sessions/{project}", s.handleSessions)
	mux.HandleFunc("GET /api/analysis/{project}/{session}", s.handleAnalysis)
	mux.HandleFunc("GET /api/tree/{project}/{session}", s.handleTree)
	mux.HandleFunc("GET /api/waste/{project}/{session}", s.handleWaste)
	mux.HandleFunc("GET /api/summary/{project}/{session}", s.handleSummary)
	mux.HandleFunc("GET /ai", s.handleReport)
	mux.HandleFunc("GET /api/swarm", s.handleSwarm)
	mux.HandleFunc("GET /api/swarm/{dir...}", s.handleSwarm)
	mux.HandleFunc("GET /api/file", s.handleFile)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/config", s.handleConfig)

	return s.logRequests(mux)
}

// ListenAndServe listens on the TCP address addr and serves until the
// server is shut down.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.WithField("addr", listener.Addr().String()).Info("Server listening")
	err := srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// logRequests logs each request at debug. With --timing every request
// gets its own profiler and its span summary is logged too.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var prof *profiling.Profiler
		if profiling.Enabled() {
			prof = profiling.New()
		} else {
			prof = &profiling.Profiler{}
		}
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(profiling.WithProfiler(r.Context(), prof)))

		entry := s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		})
		var spans strings.Builder
		prof.Summarize(&spans)
		if spans.Len() > 0 {
			entry = entry.WithField("spans", strings.TrimSpace(spans.String()))
		}
		entry.Debug("Request served")
	})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if s.engine != nil {
		if projects := s.engine.Store().Projects(); projects != nil {
			writeJSON(w, projects)
			return
		}
	}
	projects, err := s.client.Projects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, projects)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.client.Sessions(r.Context(), r.PathValue("project"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, sessions)
}

// analyze answers from the engine store when the tree is watched.
func (s *Server) analyze(r *http.Request) (*daemon.Analysis, error) {
	project, session := r.PathValue("project"), r.PathValue("session")
	if s.engine != nil {
		if e, ok := s.engine.Store().Tree(project, session); ok {
			return &daemon.Analysis{Tree: e.Tree, Findings: e.Findings, Summary: e.Summary}, nil
		}
	}
	return s.client.Analyze(r.Context(), project, session)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyze(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyze(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, a.Tree)
}

func (s *Server) handleWaste(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyze(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, a.Findings)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyze(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !a.Found() {
		writeJSON(w, analysis.Summarize(nil))
		return
	}
	writeJSON(w, a.Summary)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	project, session := r.URL.Query().Get("project"), r.URL.Query().Get("session")
	if project == "" || session == "" {
		s.writeError(w, swerrors.InvalidInput("query", "project and session are required"))
		return
	}
	md, err := s.client.Report(r.Context(), project, session)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(md))
}

func (s *Server) handleSwarm(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	if dir == "" {
		dir = r.PathValue("dir")
		if dir != "" && !strings.HasPrefix(dir, "/") {
			dir = "/" + dir
		}
	}
	if dir == "" {
		s.writeError(w, swerrors.InvalidInput("dir", "a project directory is required"))
		return
	}

	artifacts, err := s.client.Swarm(r.Context(), dir)
	if swerrors.Is(err, swerrors.ErrCodeArtifactsNotFound) {
		writeJSON(w, nil)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, artifacts)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, swerrors.InvalidInput("path", "a file path is required"))
		return
	}
	data, err := swarm.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		http.Error(w, "engine not initialized", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.engine.Store().Get())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.runningConfig)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends err as a SwarmError document with a matching status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var se *swerrors.SwarmError
	if !errors.As(err, &se) {
		se = swerrors.Wrap(err, swerrors.ErrCodeInternal, err.Error())
	}

	status := statusFor(se.Code)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(se)
}

func statusFor(code swerrors.ErrorCode) int {
	switch code {
	case swerrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case swerrors.ErrCodeForbiddenPath:
		return http.StatusForbidden
	case swerrors.ErrCodeSessionNotFound, swerrors.ErrCodeProjectNotFound, swerrors.ErrCodeArtifactsNotFound:
		return http.StatusNotFound
	case swerrors.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
