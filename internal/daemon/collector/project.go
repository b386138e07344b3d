package collector

import (
	"context"
	"time"

	"github.com/grovetools/swarmstat/internal/daemon/store"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/process"
	"github.com/grovetools/swarmstat/util/pathutil"
	"github.com/sirupsen/logrus"
)

// ProjectLister lists the projects of a session store.
type ProjectLister interface {
	Projects(ctx context.Context) ([]models.Project, error)
}

// ProjectCollector polls the project listing and marks the projects that
// a running opencode process is working in.
type ProjectCollector struct {
	lister   ProjectLister
	interval time.Duration
	logger   *logrus.Entry

	// discover is replaced in tests.
	discover func(ctx context.Context) ([]process.Info, error)
}

// NewProjectCollector creates a ProjectCollector. If interval is 0 it
// defaults to 10 seconds.
func NewProjectCollector(lister ProjectLister, interval time.Duration, logger *logrus.Entry) *ProjectCollector {
	if interval == 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = logrus.NewEntry(l)
	}
	return &ProjectCollector{
		lister:   lister,
		interval: interval,
		logger:   logger,
		discover: process.DiscoverOpencode,
	}
}

// Name returns the collector's name.
func (c *ProjectCollector) Name() string { return "projects" }

// Run starts the polling loop.
func (c *ProjectCollector) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	scan := func() bool {
		start := time.Now()
		projects, err := c.lister.Projects(ctx)
		if err != nil {
			c.logger.WithError(err).Warn("Project listing failed")
			return ctx.Err() == nil
		}
		infos, err := c.discover(ctx)
		if err != nil {
			c.logger.WithError(err).Debug("Process discovery failed")
		}
		MarkLive(projects, process.LiveDirectories(infos))

		if d := time.Since(start); d > 500*time.Millisecond {
			c.logger.WithField("duration", d).Warn("Slow project scan detected")
		}
		return emit(ctx, updates, store.Update{
			Type:    store.UpdateProjects,
			Source:  c.Name(),
			Payload: projects,
		})
	}

	if !scan() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !scan() {
				return nil
			}
		}
	}
}

// MarkLive sets Live on every project whose directory is in live.
func MarkLive(projects []models.Project, live map[string]bool) {
	for i := range projects {
		if projects[i].Directory == "" {
			continue
		}
		projects[i].Live = live[pathutil.NormalizeForLookup(projects[i].Directory)]
	}
}
