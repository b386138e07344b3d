// Package pidfile guards against two `swarmstat serve` instances and lets
// other commands find the running server.
package pidfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grovetools/swarmstat/pkg/process"
)

// Info is the content of the pid file.
type Info struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}

// Acquire records the current process as the server listening on addr.
// It returns an error if another live instance holds the file.
func Acquire(path, addr string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}

	if info, err := Read(path); err == nil {
		if info.PID != os.Getpid() && process.IsProcessAlive(info.PID) {
			return fmt.Errorf("server already running with PID %d on %s", info.PID, info.Addr)
		}
		// stale
		_ = os.Remove(path)
	}

	data, err := json.Marshal(Info{PID: os.Getpid(), Addr: addr, StartedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// Release removes the PID file.
func Release(path string) error {
	return os.Remove(path)
}

// Read parses the pid file. A bare PID, as older files hold, is accepted.
func Read(path string) (*Info, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(content))
	if pid, err := strconv.Atoi(text); err == nil {
		return &Info{PID: pid}, nil
	}
	var info Info
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		return nil, fmt.Errorf("invalid pid file %s: %w", path, err)
	}
	return &info, nil
}

// IsRunning checks if the server described by the pid file is alive.
func IsRunning(path string) (bool, *Info, error) {
	info, err := Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return process.IsProcessAlive(info.PID), info, nil
}
