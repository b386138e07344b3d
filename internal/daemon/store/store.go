package store

import (
	"sort"
	"sync"
	"time"

	"github.com/grovetools/swarmstat/pkg/models"
)

// Store is the in-memory state store for the server. It is safe for
// concurrent use and fans updates out to subscribers.
type Store struct {
	mu          sync.RWMutex
	state       *State
	subscribers map[chan Update]struct{}
}

// New creates a new Store instance.
func New() *Store {
	return &Store{
		state: &State{
			Trees: make(map[string]*Entry),
		},
		subscribers: make(map[chan Update]struct{}),
	}
}

// Get returns a copy of the current state. Entries are shared and must be
// treated as read-only.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trees := make(map[string]*Entry, len(s.state.Trees))
	for k, v := range s.state.Trees {
		trees[k] = v
	}
	return State{Trees: trees, Projects: append([]models.Project(nil), s.state.Projects...)}
}

// Tree returns the latest entry for a watched tree.
func (s *Store) Tree(projectID, sessionID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.Trees[Key(projectID, sessionID)]
	return e, ok
}

// Trees returns every watched entry ordered by key.
func (s *Store) Trees() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.state.Trees))
	for k := range s.state.Trees {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.state.Trees[k])
	}
	return out
}

// Projects returns the last project listing, or nil when no project
// collector has reported yet.
func (s *Store) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Projects == nil {
		return nil
	}
	return append([]models.Project(nil), s.state.Projects...)
}

// ApplyUpdate modifies the state and notifies subscribers.
func (s *Store) ApplyUpdate(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Type {
	case UpdateTree:
		if e, ok := u.Payload.(*Entry); ok {
			key := u.Key
			if key == "" {
				key = Key(e.Project, e.Session)
			}
			if prev, ok := s.state.Trees[key]; ok {
				e.Revision = prev.Revision + 1
			} else {
				e.Revision = 1
			}
			if e.UpdatedAt.IsZero() {
				e.UpdatedAt = time.Now()
			}
			s.state.Trees[key] = e
		}
	case UpdateProjects:
		if projects, ok := u.Payload.([]models.Project); ok {
			s.state.Projects = projects
		}
	}

	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// slow subscribers miss updates
		}
	}
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}

// BroadcastConfigReload notifies subscribers that file was reloaded.
func (s *Store) BroadcastConfigReload(file string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	update := Update{Type: UpdateConfigReload, Source: "config", Payload: file}
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}
