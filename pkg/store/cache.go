package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harun/sessfile/internal/observability"
)

// tableCache keeps a deserialized session table in memory, tagged with the
// fingerprint of the disk state it was built from. A nil adapter means the
// cache is unbound (pure in-memory mode) and never touches the filesystem.
type tableCache[T any] struct {
	adapter   *fileAdapter
	validator *documentValidator

	sessions map[string]T
	fp       Fingerprint
	loaded   bool
}

func newTableCache[T any](adapter *fileAdapter, validator *documentValidator) *tableCache[T] {
	return &tableCache[T]{
		adapter:   adapter,
		validator: validator,
		sessions:  make(map[string]T),
	}
}

// invalidate forces the next ensureFresh to re-read the file regardless of
// what the metadata fingerprint says. Used by the reload watcher hint.
func (c *tableCache[T]) invalidate() {
	c.loaded = false
}

// ensureFresh reconciles the in-memory table with the current disk state.
// The metadata fingerprint decides cheaply whether anything changed; a
// stat-level match is only trusted once the file's mtime is older than the
// assumed clock granularity, otherwise the content hash arbitrates.
func (c *tableCache[T]) ensureFresh() error {
	if c.adapter == nil {
		return nil
	}

	if c.loaded {
		fp, exists, err := c.adapter.Stat()
		if err != nil {
			return err
		}
		if !exists {
			if c.fp.IsZero() {
				return nil
			}
			// File was removed externally; fall through to reload empty.
		} else if fp.statEqual(c.fp) && time.Since(c.fp.ModTime) >= mtimeGranularity {
			return nil
		}
	}

	start := time.Now()
	content, fp, err := c.adapter.Read()
	if err != nil {
		return err
	}

	if c.loaded && fp.Sum != "" && fp.Sum == c.fp.Sum {
		// Same bytes under a new mtime (touch, or an equal rewrite); keep the
		// decoded table and just adopt the new metadata.
		c.fp = fp
		return nil
	}

	sessions := make(map[string]T)
	if len(bytes.TrimSpace(content)) > 0 {
		if c.validator != nil {
			if err := c.validator.validate(content); err != nil {
				return &CorruptStateError{Path: c.adapter.path, Err: err}
			}
		}
		if err := json.Unmarshal(content, &sessions); err != nil {
			return &CorruptStateError{Path: c.adapter.path, Err: err}
		}
	}

	c.sessions = sessions
	c.fp = fp
	c.loaded = true

	observability.RecordStoreLoad(time.Since(start))
	observability.RecordStoreReload()
	observability.SetActiveSessions(len(c.sessions))

	log.Trace().
		Str("path", c.adapter.path).
		Int("sessions", len(c.sessions)).
		Msg("Session table reloaded")

	return nil
}

// commit serializes the given table, writes it through the adapter, and only
// then swaps it into memory together with the new fingerprint. On failure the
// cached table is left unchanged.
func (c *tableCache[T]) commit(sessions map[string]T) error {
	if c.adapter == nil {
		c.sessions = sessions
		return nil
	}

	content, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session table: %w", err)
	}

	start := time.Now()
	fp, err := c.adapter.Write(content)
	if err != nil {
		return err
	}

	c.sessions = sessions
	c.fp = fp
	c.loaded = true

	observability.RecordStoreSave(time.Since(start))
	observability.SetActiveSessions(len(c.sessions))

	return nil
}
