package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/swarmstat/internal/daemon/store"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/daemon"
	"github.com/sirupsen/logrus"
)

// Analyzer builds one analysis of a session tree. daemon.Client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, projectID, sessionID string) (*daemon.Analysis, error)
}

// TreeCollector re-aggregates one session tree on a ticker and whenever the
// opencode storage directory changes. An update is emitted only when the
// serialized analysis differs from the previous one.
type TreeCollector struct {
	analyzer Analyzer
	project  string
	session  string
	interval time.Duration
	debounce time.Duration
	root     string
	logger   *logrus.Entry

	last    []byte
	watcher *fsnotify.Watcher
	watched map[string]bool
}

// TreeOption configures a TreeCollector.
type TreeOption func(*TreeCollector)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) TreeOption {
	return func(c *TreeCollector) { c.interval = d }
}

// WithDebounce sets how long filesystem events are coalesced.
func WithDebounce(d time.Duration) TreeOption {
	return func(c *TreeCollector) { c.debounce = d }
}

// WithStorageRoot enables filesystem watching of an opencode storage root.
func WithStorageRoot(root string) TreeOption {
	return func(c *TreeCollector) { c.root = root }
}

// WithTreeLogger sets the collector logger.
func WithTreeLogger(logger *logrus.Entry) TreeOption {
	return func(c *TreeCollector) { c.logger = logger }
}

// NewTreeCollector creates a collector for the tree rooted at sessionID.
func NewTreeCollector(a Analyzer, projectID, sessionID string, opts ...TreeOption) *TreeCollector {
	c := &TreeCollector{
		analyzer: a,
		project:  projectID,
		session:  sessionID,
		interval: 5 * time.Second,
		debounce: 500 * time.Millisecond,
		watched:  map[string]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		c.logger = logrus.NewEntry(l)
	}
	c.logger = c.logger.WithFields(logrus.Fields{"project": projectID, "session": sessionID})
	return c
}

// Name returns the collector's name.
func (c *TreeCollector) Name() string { return "tree:" + store.Key(c.project, c.session) }

// Run rebuilds until ctx is cancelled.
func (c *TreeCollector) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if c.root != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			c.logger.WithError(err).Warn("Filesystem watching disabled")
		} else {
			c.watcher = w
			defer w.Close()
			events, errs = w.Events, w.Errors
			c.watch(filepath.Join(c.root, "session", c.project))
			c.watch(filepath.Join(c.root, "message"))
			c.watch(filepath.Join(c.root, "part"))
		}
	}

	if !c.rebuild(ctx, updates) {
		return nil
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !c.rebuild(ctx, updates) {
				return nil
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					c.watch(ev.Name)
				}
			}
			if pending == nil {
				pending = time.After(c.debounce)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.logger.WithError(err).Warn("Watcher error")
		case <-pending:
			pending = nil
			if !c.rebuild(ctx, updates) {
				return nil
			}
		}
	}
}

// rebuild returns false once ctx is done.
func (c *TreeCollector) rebuild(ctx context.Context, updates chan<- store.Update) bool {
	a, err := c.analyzer.Analyze(ctx, c.project, c.session)
	if err != nil {
		c.logger.WithError(err).Warn("Rebuild failed")
		return ctx.Err() == nil
	}

	data, err := json.Marshal(a)
	if err != nil {
		c.logger.WithError(err).Error("Failed to serialize analysis")
		return true
	}
	if c.last != nil && bytes.Equal(data, c.last) {
		return true
	}
	c.last = data
	c.watchTree(a)

	c.logger.WithField("findings", len(a.Findings)).Debug("Tree changed")
	return emit(ctx, updates, store.Update{
		Type:   store.UpdateTree,
		Source: c.Name(),
		Key:    store.Key(c.project, c.session),
		Payload: &store.Entry{
			Project:  c.project,
			Session:  c.session,
			Tree:     a.Tree,
			Findings: a.Findings,
			Summary:  a.Summary,
		},
	})
}

// watchTree adds the message directory of every session in the tree.
func (c *TreeCollector) watchTree(a *daemon.Analysis) {
	if c.watcher == nil || !a.Found() {
		return
	}
	for _, n := range analysis.Flatten(a.Tree) {
		c.watch(filepath.Join(c.root, "message", n.ID))
	}
}

func (c *TreeCollector) watch(dir string) {
	if c.watcher == nil || c.watched[dir] {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		c.logger.WithError(err).Debugf("Cannot watch %s", dir)
		return
	}
	c.watched[dir] = true
}
