package cli

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/grovetools/swarmstat/tui/theme"
)

// ProgressReporter prints per-item status lines for long operations such
// as `swarmstat import`. It is safe for concurrent use.
type ProgressReporter struct {
	mu       sync.Mutex
	out      io.Writer
	statuses map[string]string
	start    time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(out io.Writer) *ProgressReporter {
	return &ProgressReporter{
		out:      out,
		statuses: make(map[string]string),
		start:    time.Now(),
	}
}

// Update records and prints the status of item.
func (p *ProgressReporter) Update(item, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.statuses[item] = status
	fmt.Fprintf(p.out, "%s %s: %s\n", symbol(status), item, status)
}

func symbol(status string) string {
	switch status {
	case "completed":
		return theme.DefaultTheme.Success.Render("[*]")
	case "failed":
		return theme.DefaultTheme.Error.Render("[x]")
	case "started":
		return "[~]"
	}
	return "[.]"
}

// Statuses returns the last status of every item, sorted by item.
func (p *ProgressReporter) Statuses() [][2]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, 0, len(p.statuses))
	for k := range p.statuses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, len(keys))
	for i, k := range keys {
		out[i] = [2]string{k, p.statuses[k]}
	}
	return out
}

// Done prints the elapsed time.
func (p *ProgressReporter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.start).Round(time.Millisecond)
	fmt.Fprintf(p.out, "\nOperation completed in %s\n", elapsed)
}
