package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local/share"), Expand("~/.local/share"))
	assert.Equal(t, home, Expand("~"))
	assert.Equal(t, "relative/dir", Expand("relative/dir"))

	t.Setenv("SWARMSTAT_TEST_DIR", "/tmp/swarm")
	assert.Equal(t, "/tmp/swarm/db", Expand("$SWARMSTAT_TEST_DIR/db"))
}

func TestNormalizeForLookup(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(real, 0o755))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(real, link))

	assert.True(t, SamePath(real, link))
	assert.True(t, SamePath(real+"/", filepath.Join(dir, "x", "..", "real")))
	assert.False(t, SamePath(real, dir))

	// missing paths still normalize
	assert.Equal(t, NormalizeForLookup(filepath.Join(dir, "gone")), NormalizeForLookup(filepath.Join(dir, "gone", "..", "gone")))
}
