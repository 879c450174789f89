package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "coach.db"),
		WithIDGenerator(sequentialIDs()),
		WithClock(steppingClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_EmptyList(t *testing.T) {
	s := newTestSQLite(t)
	got := s.List(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestSQLiteStore_ReadOnlyMissingDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	_, err := NewSQLite(filepath.Join(dir, "coach.db"), ReadOnly())
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSQLiteStore_ReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.db")
	rw, err := NewSQLite(path)
	require.NoError(t, err)
	_, err = rw.Append(context.Background(), testDraft(t))
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	ro, err := NewSQLite(path, ReadOnly())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ro.Close() })

	assert.Len(t, ro.List(context.Background()), 1)
	_, err = ro.Append(context.Background(), testDraft(t))
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, ro.Clear(context.Background()), ErrReadOnly)
}

func TestSQLiteStore_AppendRoundTripNewestFirst(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	draft := testDraft(t)

	first, err := s.Append(ctx, draft)
	require.NoError(t, err)
	second, err := s.Append(ctx, draft)
	require.NoError(t, err)

	got := s.List(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	if diff := cmp.Diff(first, got[1]); diff != "" {
		t.Errorf("stored session mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_Clear(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	_, err := s.Append(ctx, testDraft(t))
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.List(ctx))
}

func TestSQLiteStore_ConcurrentAppends(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	const n = 10

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Append(ctx, testDraft(t))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, s.List(ctx), n)
}

func TestOpen_SelectsDriver(t *testing.T) {
	dir := t.TempDir()

	fs, err := Open(DriverFile, filepath.Join(dir, "sessions.json"), "")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fs)

	db, err := Open(DriverSQLite, "", filepath.Join(dir, "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.IsType(t, &SQLiteStore{}, db)
}
