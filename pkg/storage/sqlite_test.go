package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/grovetools/swarmstat/config"
	swarmerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteImportMirrorsSource(t *testing.T) {
	ctx := context.Background()
	src := openFixture(t, newFixture(t))

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "snap", "snapshot.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	stats, err := db.Import(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Projects: 2, Sessions: 4, Messages: 2, Parts: 2}, stats)

	wantProjects, err := src.ListProjects(ctx)
	require.NoError(t, err)
	gotProjects, err := db.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantProjects, gotProjects)

	wantSessions, _ := src.ListSessions(ctx, "proj")
	gotSessions, err := db.ListSessions(ctx, "proj")
	require.NoError(t, err)
	assert.Equal(t, wantSessions, gotSessions)

	assert.Equal(t, src.ListChildSessions(ctx, "proj", "ses_root"), db.ListChildSessions(ctx, "proj", "ses_root"))
	assert.Equal(t, src.ListMessages(ctx, "ses_root"), db.ListMessages(ctx, "ses_root"))

	wantParts := src.ListToolRecords(ctx, "msg_2")
	gotParts := db.ListToolRecords(ctx, "msg_2")
	require.Len(t, gotParts, len(wantParts))
	types := make([]string, len(gotParts))
	for i := range wantParts {
		types[i] = gotParts[i].Type
		assert.Equal(t, wantParts[i].ID, gotParts[i].ID)
		assert.Equal(t, wantParts[i].Type, gotParts[i].Type)
		assert.Equal(t, wantParts[i].Tool, gotParts[i].Tool)
		assert.Equal(t, wantParts[i].Start, gotParts[i].Start)
		if len(wantParts[i].Input) > 0 {
			assert.JSONEq(t, string(wantParts[i].Input), string(gotParts[i].Input))
		} else {
			assert.Empty(t, gotParts[i].Input)
		}
	}
	// text parts survive the snapshot alongside tool parts
	assert.ElementsMatch(t, []string{"text", "tool"}, types)

	s, ok := db.ResolveSession(ctx, "proj", "ses_child_a")
	require.True(t, ok)
	assert.Equal(t, "ses_root", s.ParentID)
	_, ok = db.ResolveSession(ctx, "other", "ses_child_a")
	assert.False(t, ok)
}

func TestSQLiteImportIsRepeatable(t *testing.T) {
	ctx := context.Background()
	src := openFixture(t, newFixture(t))

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshot.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Import(ctx, src, "proj")
	require.NoError(t, err)
	_, err = db.Import(ctx, src, "proj")
	require.NoError(t, err)

	sessions, err := db.ListSessions(ctx, "proj")
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	_, err = db.ListSessions(ctx, "other")
	assert.Equal(t, swarmerrors.ErrCodeProjectNotFound, swarmerrors.GetCode(err))
}

func TestSQLiteImportUnknownProject(t *testing.T) {
	src := openFixture(t, newFixture(t))
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshot.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Import(context.Background(), src, "missing")
	assert.Equal(t, swarmerrors.ErrCodeProjectNotFound, swarmerrors.GetCode(err))
}

func TestOpen(t *testing.T) {
	fx := newFixture(t)

	store, err := Open(&config.StorageConfig{Backend: config.BackendFile, Root: fx.Root}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	dbPath := filepath.Join(t.TempDir(), "s.db")
	store, err = Open(&config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: dbPath}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(&config.StorageConfig{Backend: "redis"}, nil)
	assert.Error(t, err)
}

// scriptedRows yields docs in order and then reports err.
type scriptedRows struct {
	docs []any
	i    int
	err  error
}

func (r *scriptedRows) Next() bool {
	r.i++
	return r.i <= len(r.docs)
}

func (r *scriptedRows) Scan(dest ...any) error {
	return dest[0].(interface{ Scan(any) error }).Scan(r.docs[r.i-1])
}

func (r *scriptedRows) Err() error { return r.err }

func TestDecodeRows(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)
	logger := logrus.NewEntry(l)

	tests := []struct {
		name    string
		rows    *scriptedRows
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "all rows",
			rows:    &scriptedRows{docs: []any{`{"id":"m1"}`, []byte(`{"id":"m2"}`)}},
			wantIDs: []string{"m1", "m2"},
		},
		{
			name:    "unreadable row dropped",
			rows:    &scriptedRows{docs: []any{`{"id":"m1"}`, `{broken`, `{"id":"m3"}`}},
			wantIDs: []string{"m1", "m3"},
		},
		{
			name:    "iteration error keeps rows read so far",
			rows:    &scriptedRows{docs: []any{`{"id":"m1"}`}, err: errors.New("disk I/O error")},
			wantIDs: []string{"m1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRows[models.Message](tt.rows, logger, "message")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			ids := make([]string, len(got))
			for i, m := range got {
				ids[i] = m.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
	assert.Contains(t, buf.String(), "Dropping unreadable message row")
}
