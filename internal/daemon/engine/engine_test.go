package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grovetools/swarmstat/internal/daemon/store"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type oneShot struct {
	name string
	err  error
}

func (o *oneShot) Name() string { return o.name }

func (o *oneShot) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	if o.err != nil {
		return o.err
	}
	updates <- store.Update{Type: store.UpdateProjects, Source: o.name, Payload: []models.Project{{ID: o.name}}}
	<-ctx.Done()
	return nil
}

func TestEngineAppliesUpdates(t *testing.T) {
	st := store.New()
	e := New(st, nil)
	e.Register(&oneShot{name: "a"})
	e.Register(&oneShot{name: "broken", err: errors.New("boom")})
	assert.Equal(t, []string{"a", "broken"}, e.Collectors())
	assert.Same(t, st, e.Store())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		p := st.Projects()
		return len(p) == 1 && p[0].ID == "a"
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
}
