package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerCaching(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	a := NewLogger("storage")
	b := NewLogger("storage")
	c := NewLogger("server")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "storage", a.Data["component"])
	assert.Equal(t, "server", c.Data["component"])
}

func TestTextFormatter(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Time:    fixed,
				Level:   logrus.InfoLevel,
				Message: "tree built",
				Data:    logrus.Fields{"component": "analysis", "nodes": 3},
			},
			want: []string{"2024-05-01 12:30:00", "[INFO]", "[analysis]", "tree built", "nodes=3"},
		},
		{
			name:   "warning is shortened",
			config: FormatConfig{DisableTimestamp: true},
			entry: &logrus.Entry{
				Time:    fixed,
				Level:   logrus.WarnLevel,
				Message: "record dropped",
				Data:    logrus.Fields{},
			},
			want:    []string{"[WARN] record dropped"},
			notWant: []string{"WARNING", "2024-05-01"},
		},
		{
			name:   "component hidden",
			config: FormatConfig{DisableTimestamp: true, DisableComponent: true},
			entry: &logrus.Entry{
				Time:    fixed,
				Level:   logrus.DebugLevel,
				Message: "cycle skipped",
				Data:    logrus.Fields{"component": "analysis", "session": "ses_1"},
			},
			want:    []string{"[DEBUG] cycle skipped session=ses_1"},
			notWant: []string{"[analysis]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &TextFormatter{Config: tt.config}
			out, err := f.Format(tt.entry)
			require.NoError(t, err)

			s := string(out)
			for _, w := range tt.want {
				assert.Contains(t, s, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, s, nw)
			}
			assert.True(t, strings.HasSuffix(s, "\n"))
		})
	}
}

func TestTextFormatterSortsFields(t *testing.T) {
	f := &TextFormatter{Config: FormatConfig{DisableTimestamp: true, DisableComponent: true}}
	out, err := f.Format(&logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "m",
		Data:    logrus.Fields{"zeta": 1, "alpha": 2, "mid": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "[INFO] m alpha=2 mid=3 zeta=1\n", string(out))
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		config Config
		want   logrus.Level
	}{
		{"default", "", Config{}, logrus.InfoLevel},
		{"from config", "", Config{Level: "warn"}, logrus.WarnLevel},
		{"env wins", "error", Config{Level: "debug"}, logrus.ErrorLevel},
		{"bad level falls back", "loud", Config{}, logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SWARMSTAT_LOG_LEVEL", tt.env)
			entry := newLogger("levels", tt.config, os.Stderr)
			assert.Equal(t, tt.want, entry.Logger.GetLevel())
		})
	}
}

func TestJSONPreset(t *testing.T) {
	entry := newLogger("json", Config{Format: FormatConfig{Preset: "json"}}, os.Stderr)
	var buf bytes.Buffer
	entry.Logger.SetOutput(&buf)

	entry.WithField("session", "ses_1").Info("built")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "json", decoded["component"])
	assert.Equal(t, "ses_1", decoded["session"])
	assert.Equal(t, "built", decoded["msg"])
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "swarmstat.log")
	entry := newLogger("file", Config{
		File:   FileSinkConfig{Enabled: true, Path: path},
		Format: FormatConfig{StructuredToStderr: "never"},
	}, os.Stderr)

	entry.Info("written to disk")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to disk")
}

func TestShouldLogToStderr(t *testing.T) {
	t.Setenv("SWARMSTAT_DEBUG", "")
	assert.True(t, shouldLogToStderr("always", logrus.InfoLevel, os.Stderr))
	assert.False(t, shouldLogToStderr("never", logrus.DebugLevel, os.Stderr))
	assert.True(t, shouldLogToStderr("auto", logrus.DebugLevel, os.Stderr))
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewTestLogger(&buf)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "[DEBUG] [test] visible")
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPretty(&buf)

	p.Success("imported %d sessions", 3)
	p.Warn("server not answering")
	p.Field("sessions", 3)
	p.Path("database", "/tmp/s.db")
	p.Error("import failed", errors.New("disk full"))

	out := buf.String()
	assert.Contains(t, out, "imported 3 sessions")
	assert.Contains(t, out, "sessions: 3")
	assert.Contains(t, out, "database: /tmp/s.db")
	assert.Contains(t, out, "import failed: disk full")
	assert.Contains(t, out, "server not answering")
}
