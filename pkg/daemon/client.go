// Package daemon is the query interface behind every swarmstat command. It
// implements a transparent fallback: when `swarmstat serve` is running the
// queries go over its HTTP API, otherwise they run in-process against the
// configured session store.
package daemon

import (
	"context"

	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/swarm"
)

// Client defines the queries available to commands and to the HTTP API.
// Both RemoteClient and LocalClient implement it.
type Client interface {
	// Projects lists the projects of the session store.
	Projects(ctx context.Context) ([]models.Project, error)

	// Sessions lists a project's sessions, newest first.
	Sessions(ctx context.Context, projectID string) ([]models.Session, error)

	// Analyze builds the tree rooted at sessionID together with its
	// findings and summary. Tree is nil when the root does not exist.
	Analyze(ctx context.Context, projectID, sessionID string) (*Analysis, error)

	// Report renders the markdown analytics report.
	Report(ctx context.Context, projectID, sessionID string) (string, error)

	// Swarm reads the planning artifacts under dir/.opencode.
	Swarm(ctx context.Context, dir string) (*swarm.Artifacts, error)

	// IsRunning returns true if the client talks to a live server.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}

// Analysis is one aggregated tree with everything derived from it.
type Analysis struct {
	Tree     *models.Node     `json:"tree"`
	Findings []models.Finding `json:"findings"`
	Summary  analysis.Summary `json:"summary"`
}

// Found reports whether the root session existed.
func (a *Analysis) Found() bool {
	return a != nil && a.Tree != nil
}
