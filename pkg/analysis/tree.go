package analysis

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/sirupsen/logrus"
)

// Source is the read side of a session store as the tree builder sees it.
// Missing records are reported as absent or empty, never as errors.
type Source interface {
	ToolSource
	ResolveSession(ctx context.Context, projectID, sessionID string) (*models.Session, bool)
	// ListMessages returns the messages of a session ascending by creation time.
	ListMessages(ctx context.Context, sessionID string) []models.Message
	ListChildSessions(ctx context.Context, projectID, parentID string) []models.Session
}

// Builder turns a session hierarchy into an aggregated tree.
type Builder struct {
	source     Source
	heuristics Heuristics
	planning   *PlanningMatcher
	parallel   bool
	maxWorkers int
	logger     *logrus.Entry
}

// Option configures a Builder.
type Option func(*Builder)

// WithHeuristics replaces the estimation constants.
func WithHeuristics(h Heuristics) Option {
	return func(b *Builder) { b.heuristics = h }
}

// WithPlanningMatcher sets how referenced planning files are recognized.
func WithPlanningMatcher(m *PlanningMatcher) Option {
	return func(b *Builder) { b.planning = m }
}

// WithParallel builds sibling subtrees concurrently, at most workers at a
// time per parent.
func WithParallel(workers int) Option {
	return func(b *Builder) {
		b.parallel = true
		b.maxWorkers = workers
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a Builder reading from src.
func NewBuilder(src Source, opts ...Option) *Builder {
	b := &Builder{
		source:     src,
		heuristics: DefaultHeuristics(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxWorkers <= 0 {
		b.maxWorkers = 4
	}
	if b.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		b.logger = logrus.NewEntry(l)
	}
	return b
}

// BuildTree aggregates the tree rooted at rootID. It returns nil when the
// root session cannot be resolved. Missing or cyclic children are skipped.
// Cancelling ctx stops descent; the partial tree built so far is returned.
func (b *Builder) BuildTree(ctx context.Context, projectID, rootID string) *models.Node {
	return b.buildNode(ctx, projectID, rootID, true, nil)
}

// ancestry is the immutable chain of session ids above a frame.
type ancestry struct {
	id     string
	parent *ancestry
}

func (a *ancestry) contains(id string) bool {
	for p := a; p != nil; p = p.parent {
		if p.id == id {
			return true
		}
	}
	return false
}

func (b *Builder) buildNode(ctx context.Context, projectID, sid string, isRoot bool, path *ancestry) *models.Node {
	session, ok := b.source.ResolveSession(ctx, projectID, sid)
	if !ok || session == nil {
		b.logger.WithField("session", sid).Debug("Session not found, skipping")
		return nil
	}

	msgs := append([]models.Message(nil), b.source.ListMessages(ctx, sid)...)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Created < msgs[j].Created })

	acc := newNodeAccumulator(isRoot)
	for _, m := range msgs {
		acc.addMessage(m, b.heuristics, b.planning)
	}
	for _, m := range msgs {
		acc.addToolEvents(m, CollectEvents(ctx, b.source, m.ID, b.heuristics))
	}

	children := b.buildChildren(ctx, projectID, sid, &ancestry{id: sid, parent: path})
	for _, c := range children {
		acc.mergeChild(c)
	}

	return acc.finish(session, msgs, children)
}

func (b *Builder) buildChildren(ctx context.Context, projectID, parentID string, path *ancestry) []*models.Node {
	if ctx.Err() != nil {
		return []*models.Node{}
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, s := range b.source.ListChildSessions(ctx, projectID, parentID) {
		if s.ParentID != parentID {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		if path.contains(s.ID) {
			b.logger.WithFields(logrus.Fields{"session": s.ID, "parent": parentID}).
				Debug("Ignoring cyclic parent edge")
			continue
		}
		ids = append(ids, s.ID)
	}

	results := make([]*models.Node, len(ids))
	if b.parallel && len(ids) > 1 {
		var wg sync.WaitGroup
		semaphore := make(chan struct{}, b.maxWorkers)
		for i, id := range ids {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				semaphore <- struct{}{}
				defer func() { <-semaphore }()
				results[i] = b.buildNode(ctx, projectID, id, false, path)
			}(i, id)
		}
		wg.Wait()
	} else {
		for i, id := range ids {
			results[i] = b.buildNode(ctx, projectID, id, false, path)
		}
	}

	children := make([]*models.Node, 0, len(results))
	for _, c := range results {
		if c != nil {
			children = append(children, c)
		}
	}
	return children
}
