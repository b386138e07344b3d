// Package profiling records nested timing spans for --timing and wires
// pprof profiles into cobra commands.
package profiling

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	profiler *Profiler
}

// Stop completes the timing for this span.
func (s *span) Stop() {
	s.profiler.endSpan(s)
}

// Profiler is a session of nested timing spans. Spans started while
// another is open become its children.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	root    *span
	stack   []*span
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler.
func Enable() {
	defaultProfiler.enable()
}

// Reset disables the global profiler and drops its spans.
func Reset() {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	defaultProfiler.enabled = false
	defaultProfiler.root = nil
	defaultProfiler.stack = nil
}

// Start begins a span on the global profiler. Stop it with defer.
func Start(name string) Stopper {
	return defaultProfiler.Start(name)
}

// Enabled reports whether the global profiler records spans.
func Enabled() bool {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	return defaultProfiler.enabled
}

// New returns an enabled profiler independent of the global one. Use one
// per request or goroutine; a profiler's span stack is not shared safely
// between concurrent callers.
func New() *Profiler {
	p := &Profiler{}
	p.enable()
	return p
}

type contextKey struct{}

// WithProfiler scopes spans started through StartContext to p. A zero
// Profiler records nothing.
func WithProfiler(ctx context.Context, p *Profiler) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// StartContext begins a span on the profiler carried by ctx, or on the
// global profiler when ctx has none.
func StartContext(ctx context.Context, name string) Stopper {
	if p, ok := ctx.Value(contextKey{}).(*Profiler); ok && p != nil {
		return p.Start(name)
	}
	return defaultProfiler.Start(name)
}

// Summarize writes the global span tree to w.
func Summarize(w io.Writer) {
	defaultProfiler.Summarize(w)
}

func (p *Profiler) enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return
	}
	p.enabled = true
	p.root = &span{name: "root", start: time.Now(), profiler: p}
	p.stack = []*span{p.root}
}

// Start begins a span. It is a no-op until the profiler is enabled.
func (p *Profiler) Start(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return noopStopper{}
	}
	parent := p.stack[len(p.stack)-1]
	s := &span{name: name, start: time.Now(), profiler: p}
	parent.children = append(parent.children, s)
	p.stack = append(p.stack, s)
	return s
}

// endSpan records the duration and pops s together with any child left
// open above it.
func (p *Profiler) endSpan(s *span) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s.duration = time.Since(s.start)
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i] == s {
			p.stack = p.stack[:i]
			return
		}
	}
}

// Summarize writes the span tree with each span's share of the total.
func (p *Profiler) Summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || p.root == nil {
		return
	}
	total := time.Since(p.root.start)

	fmt.Fprintln(w, "\n--- Timing Profile ---")
	for _, c := range sorted(p.root.children) {
		printSpan(w, c, 0, total)
	}
	fmt.Fprintln(w, "--------------------")
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	pct := 0.0
	if total > 0 {
		pct = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), pct)
	for _, c := range sorted(s.children) {
		printSpan(w, c, depth+1, total)
	}
}

// sorted orders spans by start time.
func sorted(spans []*span) []*span {
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
	return spans
}

type noopStopper struct{}

func (noopStopper) Stop() {}
