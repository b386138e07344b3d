package daemon

import (
	"context"
	"sync"

	"github.com/grovetools/swarmstat/config"
	"github.com/grovetools/swarmstat/pkg/analysis"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/grovetools/swarmstat/pkg/profiling"
	"github.com/grovetools/swarmstat/pkg/report"
	"github.com/grovetools/swarmstat/pkg/storage"
	"github.com/grovetools/swarmstat/pkg/swarm"
	"github.com/sirupsen/logrus"
)

// LocalClient implements Client by calling the analysis library directly
// against a session store. The HTTP server serves through one as well.
type LocalClient struct {
	store  storage.Store
	logger *logrus.Entry

	mu       sync.RWMutex
	builder  *analysis.Builder
	detector *analysis.Detector
}

// NewLocalClient creates a LocalClient over st configured by cfg.
func NewLocalClient(st storage.Store, cfg *config.Config, logger *logrus.Entry) (*LocalClient, error) {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = logrus.NewEntry(l)
	}
	c := &LocalClient{store: st, logger: logger}
	if err := c.Reconfigure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Reconfigure swaps in the heuristics, planning patterns and waste policy
// of cfg. In-flight queries finish with the previous settings.
func (c *LocalClient) Reconfigure(cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Default()
	}
	matcher, err := analysis.NewPlanningMatcher(cfg.PlanningPatterns())
	if err != nil {
		return err
	}
	opts := []analysis.Option{
		analysis.WithHeuristics(cfg.Heuristics()),
		analysis.WithPlanningMatcher(matcher),
		analysis.WithLogger(c.logger.WithField("component", "builder")),
	}
	if cfg.Build != nil && cfg.Build.Parallel {
		opts = append(opts, analysis.WithParallel(cfg.Build.MaxWorkers))
	}

	builder := analysis.NewBuilder(c.store, opts...)
	detector := analysis.NewDetector(cfg.Policy())

	c.mu.Lock()
	c.builder = builder
	c.detector = detector
	c.mu.Unlock()
	return nil
}

func (c *LocalClient) engines() (*analysis.Builder, *analysis.Detector) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builder, c.detector
}

// Store returns the underlying session store.
func (c *LocalClient) Store() storage.Store {
	return c.store
}

// Projects lists the projects of the session store.
func (c *LocalClient) Projects(ctx context.Context) ([]models.Project, error) {
	return c.store.ListProjects(ctx)
}

// Sessions lists a project's sessions, newest first.
func (c *LocalClient) Sessions(ctx context.Context, projectID string) ([]models.Session, error) {
	return c.store.ListSessions(ctx, projectID)
}

// Analyze builds and inspects the tree rooted at sessionID.
func (c *LocalClient) Analyze(ctx context.Context, projectID, sessionID string) (*Analysis, error) {
	builder, detector := c.engines()
	defer profiling.StartContext(ctx, "analyze").Stop()

	build := profiling.StartContext(ctx, "build tree")
	tree := builder.BuildTree(ctx, projectID, sessionID)
	build.Stop()
	if tree == nil {
		c.logger.WithFields(logrus.Fields{"project": projectID, "session": sessionID}).Debug("Root session not found")
		return &Analysis{Findings: []models.Finding{}, Summary: analysis.Summarize(nil)}, nil
	}
	detect := profiling.StartContext(ctx, "detect waste")
	findings := detector.Detect(analysis.Flatten(tree), tree)
	detect.Stop()
	c.logger.WithFields(logrus.Fields{
		"project":  projectID,
		"session":  sessionID,
		"findings": len(findings),
	}).Debug("Analyzed session tree")
	return &Analysis{
		Tree:     tree,
		Findings: findings,
		Summary:  analysis.Summarize(tree),
	}, nil
}

// Report renders the analytics report of a tree.
func (c *LocalClient) Report(ctx context.Context, projectID, sessionID string) (string, error) {
	a, err := c.Analyze(ctx, projectID, sessionID)
	if err != nil {
		return "", err
	}
	defer profiling.StartContext(ctx, "render report").Stop()
	return report.AIReport(a.Tree, a.Findings), nil
}

// Swarm reads the planning artifacts under dir.
func (c *LocalClient) Swarm(ctx context.Context, dir string) (*swarm.Artifacts, error) {
	return swarm.Load(dir)
}

// IsRunning returns false since this is the in-process client.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close releases the session store.
func (c *LocalClient) Close() error {
	return c.store.Close()
}

var _ Client = (*LocalClient)(nil)
