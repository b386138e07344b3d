package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ConfigWatcher reports edits to the configuration files a server was
// started with, so thresholds can be reloaded without a restart.
type ConfigWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	logger   *logrus.Entry
	onReload func(file string)

	mu         sync.Mutex
	lastChange time.Time
}

// NewConfigWatcher watches files (typically config.Config.Sources). The
// directories are watched rather than the files so editors that replace
// the file on save are still seen. Symlinked files are resolved.
func NewConfigWatcher(files []string, debounce time.Duration, logger *logrus.Entry, onReload func(string)) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	w := &ConfigWatcher{
		watcher:  watcher,
		files:    map[string]bool{},
		debounce: debounce,
		logger:   logger,
		onReload: onReload,
	}

	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		w.files[abs] = true
		if target, err := filepath.EvalSymlinks(abs); err == nil && target != abs {
			w.files[target] = true
			dirs[filepath.Dir(target)] = true
		}
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.WithError(err).Warnf("Failed to watch %s", dir)
		}
	}
	return w, nil
}

// Start processes events until ctx is cancelled.
func (w *ConfigWatcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.files[name] {
				continue
			}
			w.handleChange(name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			_ = w.watcher.Close()
			return
		}
	}
}

func (w *ConfigWatcher) handleChange(file string) {
	w.mu.Lock()
	elapsed := time.Since(w.lastChange)
	if elapsed < w.debounce {
		w.mu.Unlock()
		w.logger.Debugf("Debounced: %s (only %v since last change)", filepath.Base(file), elapsed)
		return
	}
	w.lastChange = time.Now()
	w.mu.Unlock()

	w.logger.Infof("Config changed: %s", filepath.Base(file))
	if w.onReload != nil {
		w.onReload(file)
	}
}

// Close stops the watcher and releases resources.
func (w *ConfigWatcher) Close() error {
	return w.watcher.Close()
}
