package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/swarmstat/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcherReportsEdits(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "swarmstat.yml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(cfgPath, []byte("version: \"1.0\"\n"), 0o644))

	var mu sync.Mutex
	var reloaded []string
	w, err := NewConfigWatcher([]string{cfgPath}, 10*time.Millisecond, logging.NewTestLogger(os.Stderr), func(file string) {
		mu.Lock()
		reloaded = append(reloaded, file)
		mu.Unlock()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(cfgPath, []byte("version: \"1.0\"\nwaste:\n  max_human_messages: 2\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, f := range reloaded {
		assert.Equal(t, "swarmstat.yml", filepath.Base(f))
	}
}
