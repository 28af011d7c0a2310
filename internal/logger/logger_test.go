package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sessfile.log")

	l, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)
	defer l.Close()

	zl := l.Zerolog()
	zl.Info().Str("component", "test").Msg("hello")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"hello"`)
	assert.Contains(t, string(content), `"component":"test"`)
}

func TestNew_CreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "sessfile.log")

	l, err := New(Config{Level: "info", File: path})
	require.NoError(t, err)
	defer l.Close()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestNew_LevelFiltersOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessfile.log")

	l, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)
	defer l.Close()

	zl := l.Zerolog()
	zl.Debug().Msg("too quiet")
	zl.Error().Msg("loud enough")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "too quiet")
	assert.Contains(t, string(content), "loud enough")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "shouty"})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, zerolog.InfoLevel, l.Zerolog().GetLevel())
}

func TestNew_NoSinksDiscards(t *testing.T) {
	l, err := New(Config{Level: "info"})
	require.NoError(t, err)
	defer l.Close()

	// Must not panic and Close is a no-op without a file.
	zl := l.Zerolog()
	zl.Info().Msg("dropped")
	assert.NoError(t, l.Close())
}
