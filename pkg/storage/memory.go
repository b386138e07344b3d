package storage

import (
	"context"
	"sort"
	"sync"

	swarmerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/pkg/models"
)

// MemoryStore keeps records in maps. It is safe for concurrent use and
// every accessor returns copies.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.Session // by project, insertion order
	messages map[string][]models.Message
	parts    map[string][]models.RawToolRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]models.Session),
		messages: make(map[string][]models.Message),
		parts:    make(map[string][]models.RawToolRecord),
	}
}

// AddSession stores s under s.ProjectID, replacing a session with the same id.
func (m *MemoryStore) AddSession(s models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.sessions[s.ProjectID]
	for i := range list {
		if list[i].ID == s.ID {
			list[i] = s
			return
		}
	}
	m.sessions[s.ProjectID] = append(list, s)
}

// AddMessage appends msg to its session.
func (m *MemoryStore) AddMessage(msg models.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
}

// AddToolRecord appends a part to its message.
func (m *MemoryStore) AddToolRecord(r models.RawToolRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts[r.MessageID] = append(m.parts[r.MessageID], r)
}

func (m *MemoryStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		if id != ExcludedProject {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	projects := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		projects = append(projects, projectFromSessions(id, m.sorted(id)))
	}
	return projects, nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, projectID string) ([]models.Session, error) {
	m.mu.RLock()
	_, ok := m.sessions[projectID]
	m.mu.RUnlock()
	if !ok || projectID == ExcludedProject {
		return nil, swarmerrors.ProjectNotFound(projectID)
	}
	return m.sorted(projectID), nil
}

func (m *MemoryStore) ResolveSession(ctx context.Context, projectID, sessionID string) (*models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions[projectID] {
		if s.ID == sessionID {
			found := s
			return &found, true
		}
	}
	return nil, false
}

func (m *MemoryStore) ListChildSessions(ctx context.Context, projectID, parentID string) []models.Session {
	return childrenOf(m.sorted(projectID), parentID)
}

func (m *MemoryStore) ListMessages(ctx context.Context, sessionID string) []models.Message {
	m.mu.RLock()
	msgs := append([]models.Message{}, m.messages[sessionID]...)
	m.mu.RUnlock()
	sortMessages(msgs)
	return msgs
}

func (m *MemoryStore) ListToolRecords(ctx context.Context, messageID string) []models.RawToolRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RawToolRecord{}, m.parts[messageID]...)
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) sorted(projectID string) []models.Session {
	m.mu.RLock()
	sessions := append([]models.Session{}, m.sessions[projectID]...)
	m.mu.RUnlock()
	sortSessions(sessions)
	return sessions
}
