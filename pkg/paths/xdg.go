// Package paths provides XDG-compliant path resolution for swarmstat and for
// the opencode storage it reads.
//
// Resolution order:
// 1. SWARMSTAT_HOME (portable root) → $SWARMSTAT_HOME/{config,data,state,cache}
// 2. XDG env vars → $XDG_*_HOME/swarmstat
// 3. Platform defaults → ~/.config/swarmstat, ~/.local/share/swarmstat, etc.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "swarmstat"

func getConfigHome() string {
	if home := os.Getenv("SWARMSTAT_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getDataHome ignores SWARMSTAT_HOME; it is also the base of the opencode
// storage directory, which belongs to opencode rather than to us.
func getDataHome() string {
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return xdgDataHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "share")
	}
	return ""
}

func getStateHome() string {
	if home := os.Getenv("SWARMSTAT_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

func getCacheHome() string {
	if home := os.Getenv("SWARMSTAT_HOME"); home != "" {
		return filepath.Join(home, "cache")
	}
	if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
		return xdgCacheHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache")
	}
	return ""
}

// ConfigDir returns the swarmstat configuration directory.
// The global swarmstat.yml lives here.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// DataDir returns the swarmstat data directory.
func DataDir() string {
	if home := os.Getenv("SWARMSTAT_HOME"); home != "" {
		return filepath.Join(home, "data")
	}
	base := getDataHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the swarmstat state directory.
// Used for the pid file, logs and SQLite snapshots.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// CacheDir returns the swarmstat cache directory.
func CacheDir() string {
	base := getCacheHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// OpencodeStorageDir returns the directory opencode writes its session,
// message and part records to.
// OPENCODE_STORAGE overrides the default $XDG_DATA_HOME/opencode/storage.
func OpencodeStorageDir() string {
	if dir := os.Getenv("OPENCODE_STORAGE"); dir != "" {
		return dir
	}
	base := getDataHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "opencode", "storage")
}

// OpencodeAgentDir returns the global opencode agent definition directory.
func OpencodeAgentDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "opencode", "agent")
}

// SnapshotPath returns the default SQLite snapshot location.
func SnapshotPath() string {
	return filepath.Join(StateDir(), "snapshot.db")
}

// PidFilePath returns the path to the serve daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "swarmstat.pid")
}

// LogDir returns the default directory for file log sinks.
func LogDir() string {
	return filepath.Join(StateDir(), "logs")
}

// EnsureDirs creates all swarmstat directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		CacheDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
