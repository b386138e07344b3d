// Package process inspects running processes: pid liveness for the daemon
// pid file and discovery of live opencode instances.
package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/grovetools/swarmstat/util/pathutil"
	ps "github.com/shirou/gopsutil/v3/process"
)

// IsProcessAlive checks if a process with the given PID is still running.
// It uses a signal-sending method that is cross-platform for Unix-like systems (macOS, Linux).
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 probes for existence. EPERM means the process exists but
	// belongs to someone else.
	err = process.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}

// Info describes a running agent process.
type Info struct {
	PID        int32     `json:"pid"`
	WorkingDir string    `json:"workingDir"`
	StartTime  time.Time `json:"startTime"`
	CmdLine    string    `json:"cmdline"`
}

// DiscoverOpencode lists running opencode processes with their working
// directories. Processes that vanish or cannot be inspected mid-scan are
// skipped.
func DiscoverOpencode(ctx context.Context) ([]Info, error) {
	procs, err := ps.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var results []Info
	for _, p := range procs {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		argv, err := p.CmdlineSliceWithContext(ctx)
		if err != nil || !IsOpencodeCommand(argv) {
			continue
		}
		cwd, err := p.CwdWithContext(ctx)
		if err != nil || cwd == "" {
			continue
		}

		info := Info{PID: p.Pid, WorkingDir: cwd, CmdLine: strings.Join(argv, " ")}
		if created, err := p.CreateTimeWithContext(ctx); err == nil {
			info.StartTime = time.UnixMilli(created)
		}
		results = append(results, info)
	}
	return results, nil
}

// IsOpencodeCommand reports whether argv belongs to an opencode CLI
// process, either the native binary or a node/bun launcher running it.
func IsOpencodeCommand(argv []string) bool {
	if len(argv) == 0 {
		return false
	}

	exe := filepath.Base(argv[0])
	if exe == "opencode" {
		return true
	}

	if exe == "node" || exe == "bun" {
		for _, arg := range argv[1:] {
			if strings.Contains(arg, "opencode") && !strings.Contains(arg, "node_modules/.bin") {
				return true
			}
		}
	}
	return false
}

// LiveDirectories returns the set of normalized working directories.
func LiveDirectories(infos []Info) map[string]bool {
	dirs := make(map[string]bool, len(infos))
	for _, info := range infos {
		dirs[pathutil.NormalizeForLookup(info.WorkingDir)] = true
	}
	return dirs
}
