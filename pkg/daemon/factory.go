package daemon

import (
	"github.com/grovetools/swarmstat/config"
	"github.com/grovetools/swarmstat/internal/daemon/pidfile"
	"github.com/grovetools/swarmstat/pkg/paths"
	"github.com/grovetools/swarmstat/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Options controls client selection.
type Options struct {
	// Local skips the running-server check.
	Local bool
	// PidFile overrides the pid file consulted to find a server.
	PidFile string
}

// New returns a RemoteClient when a server is running and answering, and
// otherwise a LocalClient over the store configured in cfg. Callers do not
// need to know which one they got.
func New(cfg *config.Config, logger *logrus.Entry, opts Options) (Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if !opts.Local {
		if remote := findServer(opts.PidFile); remote != nil {
			if logger != nil {
				logger.WithField("addr", remote.BaseURL()).Debug("Using running server")
			}
			return remote, nil
		}
	}
	return NewLocal(cfg, logger)
}

// NewLocal opens the configured store and wraps it in a LocalClient.
func NewLocal(cfg *config.Config, logger *logrus.Entry) (*LocalClient, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	st, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	c, err := NewLocalClient(st, cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return c, nil
}

func findServer(pidPath string) *RemoteClient {
	if pidPath == "" {
		pidPath = paths.PidFilePath()
	}
	running, info, err := pidfile.IsRunning(pidPath)
	if err != nil || !running || info.Addr == "" {
		return nil
	}
	remote := NewRemoteClient(info.Addr)
	if !remote.IsRunning() {
		_ = remote.Close()
		return nil
	}
	return remote
}
