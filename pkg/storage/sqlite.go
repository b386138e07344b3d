package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	swarmerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		parent_id TEXT,
		created INTEGER NOT NULL DEFAULT 0,
		seq INTEGER NOT NULL,
		data TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id, created);`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_parent ON sessions(project_id, parent_id);`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		created INTEGER NOT NULL DEFAULT 0,
		seq INTEGER NOT NULL,
		data TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created);`,
	`CREATE TABLE IF NOT EXISTS parts (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		data TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_parts_message ON parts(message_id, seq);`,
}

// SQLiteStore serves records from a snapshot database written by Import.
// Each row keeps the normalized record as JSON next to the columns used
// for lookups.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *logrus.Entry
}

// ImportStats counts the rows written by Import.
type ImportStats struct {
	Projects int `json:"projects"`
	Sessions int `json:"sessions"`
	Messages int `json:"messages"`
	Parts    int `json:"parts"`
}

// OpenSQLite opens or creates the snapshot database at path.
func OpenSQLite(path string, logger *logrus.Entry) (*SQLiteStore, error) {
	if logger == nil {
		logger = discardLogger()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, swarmerrors.StoreUnavailable(path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, swarmerrors.StoreUnavailable(path, err)
	}
	// A single connection keeps ":memory:" databases coherent and avoids
	// writer contention on file databases.
	db.SetMaxOpenConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
	_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL;")

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, swarmerrors.StoreUnavailable(path, fmt.Errorf("failed to migrate: %w", err))
		}
	}
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT project_id FROM sessions WHERE project_id != ? ORDER BY project_id`, ExcludedProject)
	if err != nil {
		return nil, swarmerrors.StoreUnavailable(s.path, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, swarmerrors.StoreUnavailable(s.path, err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, swarmerrors.StoreUnavailable(s.path, err)
	}

	projects := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		sessions, err := s.querySessions(ctx, `WHERE project_id = ?`, id)
		if err != nil {
			return nil, err
		}
		projects = append(projects, projectFromSessions(id, sessions))
	}
	return projects, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, projectID string) ([]models.Session, error) {
	if projectID == ExcludedProject {
		return nil, swarmerrors.ProjectNotFound(projectID)
	}
	sessions, err := s.querySessions(ctx, `WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, swarmerrors.ProjectNotFound(projectID)
	}
	return sessions, nil
}

func (s *SQLiteStore) ResolveSession(ctx context.Context, projectID, sessionID string) (*models.Session, bool) {
	var data models.JSONField[models.Session]
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE project_id = ? AND id = ?`, projectID, sessionID).Scan(&data)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.WithError(err).WithField("session", sessionID).Debug("Session lookup failed")
		}
		return nil, false
	}
	return &data.Data, true
}

func (s *SQLiteStore) ListChildSessions(ctx context.Context, projectID, parentID string) []models.Session {
	sessions, err := s.querySessions(ctx, `WHERE project_id = ? AND parent_id = ?`, projectID, parentID)
	if err != nil {
		s.logger.WithError(err).WithField("parent", parentID).Debug("Child lookup failed")
		return []models.Session{}
	}
	return sessions
}

func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) []models.Message {
	msgs := make([]models.Message, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM messages WHERE session_id = ? ORDER BY created ASC, seq ASC`, sessionID)
	if err != nil {
		s.logger.WithError(err).WithField("session", sessionID).Debug("Message lookup failed")
		return msgs
	}
	defer rows.Close()
	msgs, err = decodeRows[models.Message](rows, s.logger, "message")
	if err != nil {
		s.logger.WithError(err).WithField("session", sessionID).Debug("Message listing truncated")
	}
	return msgs
}

func (s *SQLiteStore) ListToolRecords(ctx context.Context, messageID string) []models.RawToolRecord {
	parts := make([]models.RawToolRecord, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM parts WHERE message_id = ? ORDER BY seq ASC`, messageID)
	if err != nil {
		s.logger.WithError(err).WithField("message", messageID).Debug("Part lookup failed")
		return parts
	}
	defer rows.Close()
	parts, err = decodeRows[models.RawToolRecord](rows, s.logger, "part")
	if err != nil {
		s.logger.WithError(err).WithField("message", messageID).Debug("Part listing truncated")
	}
	return parts
}

func (s *SQLiteStore) querySessions(ctx context.Context, where string, args ...interface{}) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM sessions `+where+` ORDER BY created DESC, seq ASC`, args...)
	if err != nil {
		return nil, swarmerrors.StoreUnavailable(s.path, err)
	}
	defer rows.Close()

	sessions, err := decodeRows[models.Session](rows, s.logger, "session")
	if err != nil {
		return nil, swarmerrors.StoreUnavailable(s.path, err)
	}
	return sessions, nil
}

// jsonRows is the subset of *sql.Rows used to decode document columns.
type jsonRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// decodeRows decodes the single JSON column of each row. Unreadable rows
// are dropped. An iteration error is returned together with the rows read
// before it.
func decodeRows[T any](rows jsonRows, logger *logrus.Entry, kind string) ([]T, error) {
	out := make([]T, 0)
	for rows.Next() {
		var data models.JSONField[T]
		if err := rows.Scan(&data); err != nil {
			logger.WithError(err).Debugf("Dropping unreadable %s row", kind)
			continue
		}
		out = append(out, data.Data)
	}
	return out, rows.Err()
}

// Import copies projects from src into the snapshot in one transaction.
// With no project ids every project src lists is copied. Rows with the same
// id are replaced, so re-importing refreshes a snapshot.
func (s *SQLiteStore) Import(ctx context.Context, src Store, projectIDs ...string) (ImportStats, error) {
	var stats ImportStats
	if len(projectIDs) == 0 {
		projects, err := src.ListProjects(ctx)
		if err != nil {
			return stats, err
		}
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, swarmerrors.StoreUnavailable(s.path, err)
	}
	defer func() { _ = tx.Rollback() }()

	insertSession, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, project_id, parent_id, created, seq, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, swarmerrors.StoreUnavailable(s.path, err)
	}
	defer insertSession.Close()
	insertMessage, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO messages (id, session_id, created, seq, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return stats, swarmerrors.StoreUnavailable(s.path, err)
	}
	defer insertMessage.Close()
	insertPart, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO parts (id, message_id, seq, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return stats, swarmerrors.StoreUnavailable(s.path, err)
	}
	defer insertPart.Close()

	for _, projectID := range projectIDs {
		sessions, err := src.ListSessions(ctx, projectID)
		if err != nil {
			return stats, err
		}
		stats.Projects++

		for i, sess := range sessions {
			sess.ProjectID = projectID
			if _, err := insertSession.ExecContext(ctx, sess.ID, projectID, sess.ParentID, sess.Created, i,
				models.JSONField[models.Session]{Data: sess}); err != nil {
				return stats, fmt.Errorf("failed to import session %s: %w", sess.ID, err)
			}
			stats.Sessions++

			for j, msg := range src.ListMessages(ctx, sess.ID) {
				if msg.SessionID == "" {
					msg.SessionID = sess.ID
				}
				if _, err := insertMessage.ExecContext(ctx, msg.ID, sess.ID, msg.Created, j,
					models.JSONField[models.Message]{Data: msg}); err != nil {
					return stats, fmt.Errorf("failed to import message %s: %w", msg.ID, err)
				}
				stats.Messages++

				for k, part := range src.ListToolRecords(ctx, msg.ID) {
					if part.MessageID == "" {
						part.MessageID = msg.ID
					}
					id := part.ID
					if id == "" {
						id = fmt.Sprintf("%s#%d", msg.ID, k)
					}
					if _, err := insertPart.ExecContext(ctx, id, msg.ID, k,
						models.JSONField[models.RawToolRecord]{Data: part}); err != nil {
						return stats, fmt.Errorf("failed to import part %s: %w", id, err)
					}
					stats.Parts++
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, swarmerrors.StoreUnavailable(s.path, err)
	}
	s.logger.WithFields(logrus.Fields{
		"projects": stats.Projects,
		"sessions": stats.Sessions,
		"messages": stats.Messages,
		"parts":    stats.Parts,
	}).Info("Imported snapshot")
	return stats, nil
}
