// Package store holds the live state of a swarmstat server: the latest
// analysis of every watched session tree and the project listing.
package store

import (
	"time"

	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
)

// Key identifies a watched tree.
func Key(projectID, sessionID string) string {
	return projectID + "/" + sessionID
}

// Entry is the latest analysis of one watched tree.
type Entry struct {
	Project   string           `json:"project"`
	Session   string           `json:"session"`
	Tree      *models.Node     `json:"tree"`
	Findings  []models.Finding `json:"findings"`
	Summary   analysis.Summary `json:"summary"`
	Revision  int              `json:"revision"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// State represents everything the server currently knows.
type State struct {
	Trees    map[string]*Entry `json:"trees"`
	Projects []models.Project  `json:"projects"`
}

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateTree         UpdateType = "tree"
	UpdateProjects     UpdateType = "projects"
	UpdateConfigReload UpdateType = "config_reload"
)

// Update represents a change to the state.
type Update struct {
	Type    UpdateType
	Source  string // collector that produced the update
	Key     string // tree key for UpdateTree
	Payload interface{}
}
