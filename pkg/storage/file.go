package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	swarmerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	sessionDir = "session"
	messageDir = "message"
	partDir    = "part"
)

// DefaultListingTTL bounds how long a project's session listing is reused
// while its directory is unchanged.
const DefaultListingTTL = 2 * time.Second

// FileStore reads the opencode JSON layout:
//
//	<root>/session/<projectID>/<sessionID>.json
//	<root>/message/<sessionID>/<messageID>.json
//	<root>/part/<messageID>/<partID>.json
type FileStore struct {
	root   string
	logger *logrus.Entry
	ttl    time.Duration

	mu       sync.Mutex
	listings map[string]listing
}

type listing struct {
	modTime  time.Time
	loadedAt time.Time
	sessions []models.Session
}

// NewFileStore opens the storage directory at root.
func NewFileStore(root string, logger *logrus.Entry) (*FileStore, error) {
	if logger == nil {
		logger = discardLogger()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, swarmerrors.StoreUnavailable(root, err)
	}
	if !info.IsDir() {
		return nil, swarmerrors.StoreUnavailable(root, os.ErrInvalid)
	}
	return &FileStore{
		root:     root,
		logger:   logger,
		ttl:      DefaultListingTTL,
		listings: make(map[string]listing),
	}, nil
}

// Root returns the storage directory.
func (s *FileStore) Root() string {
	return s.root
}

// SetListingTTL changes how long session listings are cached. Zero disables
// the cache.
func (s *FileStore) SetListingTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
	s.listings = make(map[string]listing)
}

func (s *FileStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	dir := filepath.Join(s.root, sessionDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, swarmerrors.StoreUnavailable(dir, err)
	}

	projects := make([]models.Project, 0, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			return projects, ctx.Err()
		}
		if !e.IsDir() || e.Name() == ExcludedProject || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		sessions, _ := s.sessions(e.Name())
		projects = append(projects, projectFromSessions(e.Name(), sessions))
	}
	return projects, nil
}

func (s *FileStore) ListSessions(ctx context.Context, projectID string) ([]models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(projectID) || projectID == ExcludedProject {
		return nil, swarmerrors.ProjectNotFound(projectID)
	}
	sessions, ok := s.sessions(projectID)
	if !ok {
		return nil, swarmerrors.ProjectNotFound(projectID)
	}
	return append([]models.Session(nil), sessions...), nil
}

func (s *FileStore) ResolveSession(ctx context.Context, projectID, sessionID string) (*models.Session, bool) {
	if ctx.Err() != nil || !validName(projectID) || !validName(sessionID) {
		return nil, false
	}

	path := filepath.Join(s.root, sessionDir, projectID, sessionID+".json")
	if data, err := os.ReadFile(path); err == nil {
		sess, err := decodeSession(data, projectID)
		if err != nil {
			s.dropped(path, err)
			return nil, false
		}
		if sess.ID == sessionID {
			return &sess, true
		}
	}

	// File names normally match ids; fall back to the listing otherwise.
	sessions, _ := s.sessions(projectID)
	for _, sess := range sessions {
		if sess.ID == sessionID {
			found := sess
			return &found, true
		}
	}
	return nil, false
}

func (s *FileStore) ListChildSessions(ctx context.Context, projectID, parentID string) []models.Session {
	if ctx.Err() != nil || !validName(projectID) {
		return []models.Session{}
	}
	sessions, _ := s.sessions(projectID)
	return childrenOf(sessions, parentID)
}

func (s *FileStore) ListMessages(ctx context.Context, sessionID string) []models.Message {
	if ctx.Err() != nil || !validName(sessionID) {
		return []models.Message{}
	}
	msgs := make([]models.Message, 0)
	s.readRecords(filepath.Join(s.root, messageDir, sessionID), func(path string, data []byte) {
		m, err := decodeMessage(data)
		if err != nil {
			s.dropped(path, err)
			return
		}
		if m.SessionID == "" {
			m.SessionID = sessionID
		}
		msgs = append(msgs, m)
	})
	sortMessages(msgs)
	return msgs
}

func (s *FileStore) ListToolRecords(ctx context.Context, messageID string) []models.RawToolRecord {
	if ctx.Err() != nil || !validName(messageID) {
		return []models.RawToolRecord{}
	}
	parts := make([]models.RawToolRecord, 0)
	s.readRecords(filepath.Join(s.root, partDir, messageID), func(path string, data []byte) {
		p, err := decodePart(data)
		if err != nil {
			s.dropped(path, err)
			return
		}
		parts = append(parts, p)
	})
	return parts
}

func (s *FileStore) Close() error {
	return nil
}

// sessions returns the cached listing of a project, reloading it when the
// directory changed or the cached copy expired. The bool is false when the
// project directory does not exist.
func (s *FileStore) sessions(projectID string) ([]models.Session, bool) {
	dir := filepath.Join(s.root, sessionDir, projectID)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, false
	}

	s.mu.Lock()
	cached, ok := s.listings[projectID]
	ttl := s.ttl
	s.mu.Unlock()
	if ok && ttl > 0 && cached.modTime.Equal(info.ModTime()) && time.Since(cached.loadedAt) < ttl {
		return cached.sessions, true
	}

	sessions := make([]models.Session, 0)
	s.readRecords(dir, func(path string, data []byte) {
		sess, err := decodeSession(data, projectID)
		if err != nil {
			s.dropped(path, err)
			return
		}
		sessions = append(sessions, sess)
	})
	sortSessions(sessions)

	if ttl > 0 {
		s.mu.Lock()
		s.listings[projectID] = listing{modTime: info.ModTime(), loadedAt: time.Now(), sessions: sessions}
		s.mu.Unlock()
	}
	return sessions, true
}

// readRecords calls fn for every *.json file in dir, in file name order.
// A missing directory is not an error.
func (s *FileStore) readRecords(dir string, fn func(path string, data []byte)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("dir", dir).Warn("Failed to list records")
		}
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.dropped(path, err)
			continue
		}
		fn(path, data)
	}
}

func (s *FileStore) dropped(path string, cause error) {
	err := swarmerrors.RecordMalformed(path, cause)
	s.logger.WithError(err).WithField("path", path).Debug("Dropping unreadable record")
}

// validName rejects ids that would escape the storage layout.
func validName(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
