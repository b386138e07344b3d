package process

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsProcessAlive(t *testing.T) {
	assert.True(t, IsProcessAlive(os.Getpid()))
	assert.False(t, IsProcessAlive(0))
	assert.False(t, IsProcessAlive(-1))
}

func TestIsOpencodeCommand(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want bool
	}{
		{"native binary", []string{"/usr/local/bin/opencode"}, true},
		{"native with args", []string{"opencode", "run", "--agent", "coder"}, true},
		{"node launcher", []string{"node", "/home/u/.npm/lib/opencode-ai/bin/opencode"}, true},
		{"bun launcher", []string{"/usr/bin/bun", "run", "/opt/opencode/src/index.ts"}, true},
		{"npx shim", []string{"node", "/repo/node_modules/.bin/opencode"}, false},
		{"unrelated node", []string{"node", "server.js"}, false},
		{"lookalike binary", []string{"opencode-helper"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOpencodeCommand(tt.argv))
		})
	}
}

func TestLiveDirectories(t *testing.T) {
	dirs := LiveDirectories([]Info{{WorkingDir: "/work/app/"}, {WorkingDir: "/work/other"}})
	assert.True(t, dirs["/work/app"])
	assert.True(t, dirs["/work/other"])
	assert.False(t, dirs["/work"])
}
