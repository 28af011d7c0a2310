package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCleaner_RejectsNilPredicate(t *testing.T) {
	st, _ := setupTestStore(t)

	_, err := NewCleaner[testState](st, "@daily", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "predicate")
}

func TestNewCleaner_RejectsInvalidSchedule(t *testing.T) {
	st, _ := setupTestStore(t)

	_, err := NewCleaner(st, "every other tuesday", func(string, testState) bool { return false })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cleanup schedule")
}

func TestCleaner_RunOnce(t *testing.T) {
	st, path := setupTestStore(t)

	require.NoError(t, st.Set("keep", testState{WorkingDirectory: stringPtr("/keep")}))
	require.NoError(t, st.Set("drop-1", testState{WorkingDirectory: stringPtr("/gone")}))
	require.NoError(t, st.Set("drop-2", testState{}))

	cleaner, err := NewCleaner(st, "@daily", func(id string, _ testState) bool {
		return strings.HasPrefix(id, "drop-")
	})
	require.NoError(t, err)

	removed, err := cleaner.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ids, err := st.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, ids)

	// Removal was persisted, not just evicted from the cache.
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "drop-1")
	assert.Contains(t, string(content), "keep")
}

func TestCleaner_RunOnceNothingToPrune(t *testing.T) {
	st, _ := setupTestStore(t)
	require.NoError(t, st.Set("keep", testState{}))

	fp := st.cache.fp

	cleaner, err := NewCleaner(st, "@daily", func(string, testState) bool { return false })
	require.NoError(t, err)

	removed, err := cleaner.RunOnce()
	require.NoError(t, err)
	assert.Zero(t, removed)

	// No write happened for a no-op prune.
	assert.Equal(t, fp.Sum, st.cache.fp.Sum)
}

func TestCleaner_SeesExternalSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	writer, err := New[testState](Options[testState]{Path: path})
	require.NoError(t, err)
	defer writer.Close()

	st, err := New[testState](Options[testState]{Path: path})
	require.NoError(t, err)
	defer st.Close()

	cleaner, err := NewCleaner(st, "@daily", func(string, testState) bool { return true })
	require.NoError(t, err)

	// Written by another instance after this store last loaded.
	require.NoError(t, writer.Set("external", testState{}))

	removed, err := cleaner.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestCleaner_StartStop(t *testing.T) {
	st, _ := setupTestStore(t)

	cleaner, err := NewCleaner(st, "@daily", func(string, testState) bool { return false })
	require.NoError(t, err)
	assert.False(t, cleaner.IsRunning())

	require.NoError(t, cleaner.Start())
	assert.True(t, cleaner.IsRunning())
	assert.Error(t, cleaner.Start(), "double start")

	require.NoError(t, cleaner.Stop())
	assert.False(t, cleaner.IsRunning())
	assert.Error(t, cleaner.Stop(), "double stop")
}
