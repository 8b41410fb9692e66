package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	sess, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sess)

	require.NoError(t, s.Set(ctx, "u1", Session{"count": float64(3)}))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, float64(3), got["count"])
}

func TestSQLiteStoreUpsert(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "u1", Session{"v": "first"}))
	require.NoError(t, s.Set(ctx, "u1", Session{"v": "second"}))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "second", got["v"])
}

func TestSQLiteStoreSweep(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "u1", Session{}))
	require.NoError(t, s.Set(ctx, "u2", Session{}))

	removed, err := s.Sweep(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = s.Sweep(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
