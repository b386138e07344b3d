// Package testutil lays down opencode storage trees and planning
// directories for tests.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Storage is an opencode storage directory under a test's temp dir.
type Storage struct {
	t    *testing.T
	Root string
}

// NewStorage creates an empty storage root with the session, message and
// part directories.
func NewStorage(t *testing.T) *Storage {
	t.Helper()

	root := filepath.Join(t.TempDir(), "storage")
	for _, d := range []string{"session", "message", "part"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	return &Storage{t: t, Root: root}
}

// Session writes session/<project>/<id>.json. Fields in extra are merged
// into the record.
func (s *Storage) Session(project, id, parentID string, created int64, extra map[string]interface{}) {
	s.t.Helper()

	rec := map[string]interface{}{
		"id":        id,
		"projectID": project,
		"title":     "Session " + id,
		"time":      map[string]interface{}{"created": created, "updated": created},
	}
	if parentID != "" {
		rec["parentID"] = parentID
	}
	for k, v := range extra {
		rec[k] = v
	}
	s.WriteJSON(filepath.Join("session", project, id+".json"), rec)
}

// Message writes message/<sessionID>/<id>.json.
func (s *Storage) Message(sessionID, id, role string, created int64, extra map[string]interface{}) {
	s.t.Helper()

	rec := map[string]interface{}{
		"id":        id,
		"sessionID": sessionID,
		"role":      role,
		"time":      map[string]interface{}{"created": created},
	}
	for k, v := range extra {
		rec[k] = v
	}
	s.WriteJSON(filepath.Join("message", sessionID, id+".json"), rec)
}

// ToolPart writes a tool invocation part for messageID.
func (s *Storage) ToolPart(messageID, id, tool string, input map[string]interface{}, output string, start, end int64) {
	s.t.Helper()

	rec := map[string]interface{}{
		"id":        id,
		"messageID": messageID,
		"type":      "tool",
		"tool":      tool,
		"state": map[string]interface{}{
			"status": "completed",
			"input":  input,
			"output": output,
			"time":   map[string]interface{}{"start": start, "end": end},
		},
	}
	s.WriteJSON(filepath.Join("part", messageID, id+".json"), rec)
}

// WriteJSON marshals v to a path relative to the storage root.
func (s *Storage) WriteJSON(rel string, v interface{}) {
	s.t.Helper()

	data, err := json.Marshal(v)
	require.NoError(s.t, err)
	s.WriteRaw(rel, data)
}

// WriteRaw writes bytes verbatim, for malformed-record tests.
func (s *Storage) WriteRaw(rel string, data []byte) {
	s.t.Helper()

	path := filepath.Join(s.Root, rel)
	require.NoError(s.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(s.t, os.WriteFile(path, data, 0o644))
}

// WriteFile creates dir/rel with content, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()

	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
