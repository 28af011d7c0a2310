package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestAdapter(t *testing.T) (*fileAdapter, string) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")
	adapter, err := newFileAdapter(path)
	require.NoError(t, err)
	return adapter, path
}

func TestFileAdapter_ReadAbsentFile(t *testing.T) {
	adapter, _ := setupTestAdapter(t)

	content, fp, err := adapter.Read()
	require.NoError(t, err)
	assert.Empty(t, content)
	assert.True(t, fp.IsZero())
}

func TestFileAdapter_WriteReadRoundTrip(t *testing.T) {
	adapter, path := setupTestAdapter(t)

	written := []byte(`{"default": {"working_directory": "/tmp"}}`)
	fp, err := adapter.Write(written)
	require.NoError(t, err)
	assert.False(t, fp.IsZero())
	assert.Equal(t, int64(len(written)), fp.Size)
	assert.NotEmpty(t, fp.Sum)

	content, readFp, err := adapter.Read()
	require.NoError(t, err)
	assert.Equal(t, written, content)
	assert.Equal(t, fp.Sum, readFp.Sum)
	assert.True(t, fp.statEqual(readFp))

	// On-disk file matches what was written
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, written, onDisk)
}

func TestFileAdapter_WriteChangesFingerprint(t *testing.T) {
	adapter, _ := setupTestAdapter(t)

	fp1, err := adapter.Write([]byte(`{"a": 1}`))
	require.NoError(t, err)

	fp2, err := adapter.Write([]byte(`{"a": 2}`))
	require.NoError(t, err)

	assert.NotEqual(t, fp1.Sum, fp2.Sum)
}

func TestFileAdapter_UnchangedFileStatsEqual(t *testing.T) {
	adapter, _ := setupTestAdapter(t)

	_, err := adapter.Write([]byte(`{"a": 1}`))
	require.NoError(t, err)

	fp1, exists, err := adapter.Stat()
	require.NoError(t, err)
	require.True(t, exists)

	fp2, exists, err := adapter.Stat()
	require.NoError(t, err)
	require.True(t, exists)

	assert.True(t, fp1.statEqual(fp2))
}

func TestFileAdapter_LeavesNoTempFiles(t *testing.T) {
	adapter, path := setupTestAdapter(t)

	_, err := adapter.Write([]byte(`{}`))
	require.NoError(t, err)
	_, err = adapter.Write([]byte(`{"a": 1}`))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestFileAdapter_MissingParentDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := newFileAdapter(filepath.Join(dir, "missing", "sessions.json"))
	require.Error(t, err)

	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestFileAdapter_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0600))

	_, err := newFileAdapter(filepath.Join(filePath, "sessions.json"))
	require.Error(t, err)
}

func TestFileAdapter_AbandonedTempFileDoesNotCorruptReads(t *testing.T) {
	adapter, path := setupTestAdapter(t)

	original := []byte(`{"default": {"working_directory": "/tmp"}}`)
	fp, err := adapter.Write(original)
	require.NoError(t, err)

	// Simulate a writer dying after creating its temp file but before the
	// rename: a half-written temp file sits next to the target.
	tempPath := path + ".abandoned.tmp"
	require.NoError(t, os.WriteFile(tempPath, []byte(`{"default": {"work`), 0600))

	content, readFp, err := adapter.Read()
	require.NoError(t, err)
	assert.Equal(t, original, content)
	assert.Equal(t, fp.Sum, readFp.Sum)
}

func TestFileAdapter_FailedRenameCleansUpTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")

	// Make the rename step fail by occupying the target path with a
	// non-empty directory.
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0755))

	adapter, err := newFileAdapter(path)
	require.NoError(t, err)

	_, err = adapter.Write([]byte(`{"a": 1}`))
	require.Error(t, err)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "rename", ioErr.Op)

	// The temp file was cleaned up.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"))
	}
}

func TestFingerprint_IsZero(t *testing.T) {
	assert.True(t, Fingerprint{}.IsZero())

	fp := Fingerprint{Size: 1}
	assert.False(t, fp.IsZero())
}
