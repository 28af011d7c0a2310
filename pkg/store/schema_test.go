package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocumentSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"working_directory": {"type": ["string", "null"]}
		},
		"required": ["working_directory"]
	}
}`

func TestStore_SchemaAcceptsConformingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"default": {"working_directory": "/tmp"}}`), 0600))

	st, err := New[testState](Options[testState]{Path: path, Schema: testDocumentSchema})
	require.NoError(t, err)
	defer st.Close()

	got, ok, err := st.Get("default")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stringPtr("/tmp"), got.WorkingDirectory)
}

func TestStore_SchemaViolationSurfacesAsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	st, err := New[testState](Options[testState]{Path: path, Schema: testDocumentSchema})
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Set("default", testState{WorkingDirectory: stringPtr("/tmp")}))

	// Valid JSON, wrong shape: value is a bare number.
	require.NoError(t, os.WriteFile(path, []byte(`{"default": 42}`), 0600))

	_, _, err = st.Get("default")
	require.Error(t, err)

	var corrupt *CorruptStateError
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Err.Error(), "schema validation")
}

func TestStore_SchemaViolationFailsConstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"default": {}}`), 0600))

	_, err := New[testState](Options[testState]{Path: path, Schema: testDocumentSchema})
	require.Error(t, err)

	var corrupt *CorruptStateError
	assert.ErrorAs(t, err, &corrupt)
}

func TestStore_InvalidSchemaSourceFailsConstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	_, err := New[testState](Options[testState]{Path: path, Schema: `{"type": 17}`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}
