package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortableHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SWARMSTAT_HOME", home)

	assert.Equal(t, filepath.Join(home, "config", "swarmstat"), ConfigDir())
	assert.Equal(t, filepath.Join(home, "data"), DataDir())
	assert.Equal(t, filepath.Join(home, "state", "swarmstat"), StateDir())
	assert.Equal(t, filepath.Join(home, "cache", "swarmstat"), CacheDir())
	assert.Equal(t, filepath.Join(home, "state", "swarmstat", "swarmstat.pid"), PidFilePath())
}

func TestOpencodeStorageDir(t *testing.T) {
	t.Run("xdg data home", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("OPENCODE_STORAGE", "")
		t.Setenv("XDG_DATA_HOME", dir)
		assert.Equal(t, filepath.Join(dir, "opencode", "storage"), OpencodeStorageDir())
	})

	t.Run("explicit override", func(t *testing.T) {
		t.Setenv("OPENCODE_STORAGE", "/srv/opencode")
		assert.Equal(t, "/srv/opencode", OpencodeStorageDir())
	})
}

func TestEnsureDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SWARMSTAT_HOME", home)

	assert.NoError(t, EnsureDirs())
	assert.DirExists(t, StateDir())
	assert.DirExists(t, ConfigDir())
}
