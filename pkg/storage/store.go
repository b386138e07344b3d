// Package storage reads opencode session records from disk, from a SQLite
// snapshot or from memory. All backends implement Store.
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/grovetools/swarmstat/config"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/paths"
	"github.com/sirupsen/logrus"
)

// ExcludedProject holds opencode's global sessions and is never listed.
const ExcludedProject = "global"

// Store is the read side used by the tree builder and the surrounding
// commands. The record lookups follow the builder's contract: missing data
// yields false or an empty slice. Only listing methods report store-level
// failures.
type Store interface {
	ResolveSession(ctx context.Context, projectID, sessionID string) (*models.Session, bool)
	// ListMessages returns the messages of a session ascending by creation time.
	ListMessages(ctx context.Context, sessionID string) []models.Message
	ListToolRecords(ctx context.Context, messageID string) []models.RawToolRecord
	ListChildSessions(ctx context.Context, projectID, parentID string) []models.Session

	ListProjects(ctx context.Context) ([]models.Project, error)
	// ListSessions returns the sessions of a project, newest first.
	ListSessions(ctx context.Context, projectID string) ([]models.Session, error)
	Close() error
}

// Open creates the store selected by cfg. A nil cfg opens the default
// opencode storage directory.
func Open(cfg *config.StorageConfig, logger *logrus.Entry) (Store, error) {
	if logger == nil {
		logger = discardLogger()
	}
	backend := config.BackendFile
	var root, dbPath string
	if cfg != nil {
		if cfg.Backend != "" {
			backend = cfg.Backend
		}
		root = cfg.Root
		dbPath = cfg.SQLitePath
	}

	switch backend {
	case config.BackendFile:
		if root == "" {
			root = paths.OpencodeStorageDir()
		}
		return NewFileStore(root, logger)
	case config.BackendSQLite:
		if dbPath == "" {
			dbPath = paths.SnapshotPath()
		}
		return OpenSQLite(dbPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// sortSessions orders sessions newest first; records without a creation
// time sort last and ties keep their listing order.
func sortSessions(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Created > sessions[j].Created
	})
}

func sortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Created < msgs[j].Created
	})
}

func childrenOf(sessions []models.Session, parentID string) []models.Session {
	out := make([]models.Session, 0)
	for _, s := range sessions {
		if s.ParentID == parentID {
			out = append(out, s)
		}
	}
	return out
}

// projectFromSessions summarizes a project listing. Directory comes from the
// newest session.
func projectFromSessions(id string, sessions []models.Session) models.Project {
	p := models.Project{ID: id, Sessions: len(sessions)}
	if len(sessions) > 0 {
		p.Directory = sessions[0].Directory
	}
	return p
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
