package store

import (
	"testing"

	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTreeUpdate(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.ApplyUpdate(Update{Type: UpdateTree, Payload: &Entry{Project: "p", Session: "a", Tree: &models.Node{ID: "a"}}})
	s.ApplyUpdate(Update{Type: UpdateTree, Key: Key("p", "a"), Payload: &Entry{Project: "p", Session: "a", Tree: &models.Node{ID: "a", Messages: 2}}})

	e, ok := s.Tree("p", "a")
	require.True(t, ok)
	assert.Equal(t, 2, e.Revision)
	assert.Equal(t, 2, e.Tree.Messages)
	assert.False(t, e.UpdatedAt.IsZero())

	_, ok = s.Tree("p", "b")
	assert.False(t, ok)

	u := <-ch
	assert.Equal(t, UpdateTree, u.Type)
	assert.Len(t, ch, 1)
}

func TestTreesOrdered(t *testing.T) {
	s := New()
	s.ApplyUpdate(Update{Type: UpdateTree, Payload: &Entry{Project: "p", Session: "b"}})
	s.ApplyUpdate(Update{Type: UpdateTree, Payload: &Entry{Project: "p", Session: "a"}})

	trees := s.Trees()
	require.Len(t, trees, 2)
	assert.Equal(t, "a", trees[0].Session)
	assert.Len(t, s.Get().Trees, 2)
}

func TestProjects(t *testing.T) {
	s := New()
	assert.Nil(t, s.Projects())

	s.ApplyUpdate(Update{Type: UpdateProjects, Payload: []models.Project{{ID: "p", Live: true}}})
	projects := s.Projects()
	require.Len(t, projects, 1)
	assert.True(t, projects[0].Live)

	// callers get a copy
	projects[0].ID = "mutated"
	assert.Equal(t, "p", s.Projects()[0].ID)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	for i := 0; i < 150; i++ {
		s.ApplyUpdate(Update{Type: UpdateProjects, Payload: []models.Project{}})
	}
	assert.Len(t, ch, 100)

	s.Unsubscribe(ch)
	_, open := <-drain(ch)
	assert.False(t, open)

	// second unsubscribe is a no-op
	s.Unsubscribe(ch)
}

func TestBroadcastConfigReload(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.BroadcastConfigReload("swarmstat.yml")
	u := <-ch
	assert.Equal(t, UpdateConfigReload, u.Type)
	assert.Equal(t, "swarmstat.yml", u.Payload)
}

func drain(ch chan Update) chan Update {
	for range ch {
	}
	return ch
}
