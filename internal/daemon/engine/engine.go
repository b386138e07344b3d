// Package engine runs the collectors of a swarmstat server and applies
// their updates to the state store.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/swarmstat/internal/daemon/collector"
	"github.com/grovetools/swarmstat/internal/daemon/store"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// updateBuffer bounds how far collectors may run ahead of the store.
const updateBuffer = 64

// Engine fans collector output into a single store writer.
type Engine struct {
	store      *store.Store
	collectors []collector.Collector
	logger     *logrus.Entry
}

func New(st *store.Store, logger *logrus.Entry) *Engine {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = logrus.NewEntry(l)
	}
	return &Engine{store: st, logger: logger}
}

// Register adds c. Collectors registered after Start are not run.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Collectors returns the registered collector names in order.
func (e *Engine) Collectors() []string {
	return lo.Map(e.collectors, func(c collector.Collector, _ int) string { return c.Name() })
}

func (e *Engine) Store() *store.Store {
	return e.store
}

// Start runs every collector and blocks until ctx is cancelled and all of
// them have returned. A failing collector is logged and does not stop the
// others.
func (e *Engine) Start(ctx context.Context) {
	updates := make(chan store.Update, updateBuffer)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.apply(ctx, updates)
	}()
	for _, c := range e.collectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.run(ctx, c, updates)
		}()
	}
	wg.Wait()
}

func (e *Engine) apply(ctx context.Context, updates <-chan store.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			e.store.ApplyUpdate(u)
		}
	}
}

func (e *Engine) run(ctx context.Context, c collector.Collector, updates chan<- store.Update) {
	log := e.logger.WithField("collector", c.Name())
	log.Debug("Collector started")
	start := time.Now()
	if err := c.Run(ctx, e.store, updates); err != nil {
		log.WithError(err).Error("Collector failed")
		return
	}
	log.WithField("uptime", time.Since(start).Round(time.Second)).Debug("Collector stopped")
}
