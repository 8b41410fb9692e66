package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sess)

	require.NoError(t, s.Set(ctx, "u1", Session{"greeted": true}))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, true, got["greeted"])

	// written through to disk
	_, err = os.Stat(filepath.Join(dir, "u1.json"))
	assert.NoError(t, err)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "u1", Session{"step": "two"}))

	s2, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := s2.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "two", got["step"])
}

func TestFileStoreRejectsPathyIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		_, err := s.Get(ctx, id)
		assert.Error(t, err, id)
		assert.Error(t, s.Set(ctx, id, Session{}), id)
	}
}

func TestFileStoreSweep(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "stale", Session{}))
	// Age the file well past any cutoff we use below.
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "stale.json"), old, old))

	require.NoError(t, s.Set(ctx, "fresh", Session{}))

	removed, err := s.Sweep(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(dir, "stale.json"))
	assert.True(t, os.IsNotExist(err))

	got, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
