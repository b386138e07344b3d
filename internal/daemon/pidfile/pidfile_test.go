package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "serve.pid")

	require.NoError(t, Acquire(path, "127.0.0.1:3847"))

	info, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
	assert.Equal(t, "127.0.0.1:3847", info.Addr)
	assert.False(t, info.StartedAt.IsZero())

	running, got, err := IsRunning(path)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, info.PID, got.PID)

	// re-acquiring from the same process is allowed
	require.NoError(t, Acquire(path, "127.0.0.1:4000"))

	require.NoError(t, Release(path))
	running, got, err = IsRunning(path)
	require.NoError(t, err)
	assert.False(t, running)
	assert.Nil(t, got)
}

func TestAcquireStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serve.pid")
	// PIDs are bounded well below this on Linux and macOS
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(1<<30)), 0o644))

	info, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 1<<30, info.PID)
	assert.Empty(t, info.Addr)

	require.NoError(t, Acquire(path, "127.0.0.1:1"))
	info, err = Read(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
}

func TestReadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serve.pid")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err := Read(path)
	assert.Error(t, err)

	_, _, err = IsRunning(path)
	assert.Error(t, err)
}
