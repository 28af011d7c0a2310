package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/harun/sessfile/internal/observability"
	"github.com/harun/sessfile/internal/tracing"
)

// Options configures a Store.
type Options[T any] struct {
	// Path is the backing file. Empty selects in-memory-only mode: the same
	// API contract with zero filesystem access. The parent directory must
	// already exist; the store does not create directories.
	Path string

	// Watch enables an fsnotify reload hint for changes made by other
	// processes. Ignored in in-memory mode.
	Watch bool

	// Schema is an optional JSON schema for the on-disk table document.
	// Content failing validation surfaces as *CorruptStateError.
	Schema string

	// Default constructs the value for sessions created implicitly by
	// GetOrCreate and Update. The zero value of T is used when nil.
	Default func() T
}

// Store maps session identifiers to values of type T, durably backed by a
// single shared file that multiple uncoordinated processes may read and
// write. Every operation refreshes against disk first and persists mutations
// atomically before returning.
//
// Two processes that both mutate inside the same refresh window race, and the
// later commit wins for the whole table. Operations are expected to be
// infrequent enough that this is acceptable; the store takes no lock.
type Store[T any] struct {
	mu       sync.Mutex
	cache    *tableCache[T]
	watcher  *reloadWatcher
	path     string
	newValue func() T
}

// New creates a session store. Construction fails when the backing path is
// unusable or the existing file cannot be loaded.
func New[T any](opts Options[T]) (*Store[T], error) {
	observability.EnsureRegistered()

	var adapter *fileAdapter
	if opts.Path != "" {
		var err error
		adapter, err = newFileAdapter(opts.Path)
		if err != nil {
			return nil, err
		}
	}

	var validator *documentValidator
	if opts.Schema != "" {
		var err error
		validator, err = newDocumentValidator(opts.Schema)
		if err != nil {
			return nil, err
		}
	}

	newValue := opts.Default
	if newValue == nil {
		newValue = func() T {
			var zero T
			return zero
		}
	}

	s := &Store[T]{
		cache:    newTableCache[T](adapter, validator),
		path:     opts.Path,
		newValue: newValue,
	}

	// Load existing sessions up front so a bad file fails construction
	// instead of the first operation.
	if err := s.cache.ensureFresh(); err != nil {
		return nil, err
	}

	if opts.Watch && adapter != nil {
		watcher, err := newReloadWatcher(opts.Path)
		if err != nil {
			return nil, err
		}
		s.watcher = watcher
	}

	log.Info().
		Str("path", opts.Path).
		Bool("watch", s.watcher != nil).
		Int("sessions", len(s.cache.sessions)).
		Msg("Session store initialized")

	return s, nil
}

// Path returns the backing file path, empty in in-memory mode.
func (s *Store[T]) Path() string {
	return s.path
}

// Close stops the reload watcher, if any. The backing file outlives the
// store.
func (s *Store[T]) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Stop()
}

// Get returns the value for the given session, if present. No write occurs.
func (s *Store[T]) Get(sessionID string) (T, bool, error) {
	return s.GetWithContext(context.Background(), sessionID)
}

// GetWithContext is Get with tracing context.
func (s *Store[T]) GetWithContext(ctx context.Context, sessionID string) (T, bool, error) {
	var zero T
	ctx, span := s.startSpan(ctx, "store.get", sessionID)
	defer span.End()

	if err := validateSessionID(sessionID); err != nil {
		return zero, false, s.fail(span, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return zero, false, s.fail(span, err)
	}

	value, ok := s.cache.sessions[sessionID]
	if !ok {
		return zero, false, nil
	}

	clone, err := cloneValue(value)
	if err != nil {
		return zero, false, s.fail(span, err)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Trace().Msg("Session read")
	return clone, true, nil
}

// GetOrCreate returns the value for the given session, inserting and
// persisting the default value on first use. Calling it twice in a row for
// the same session performs exactly one write.
func (s *Store[T]) GetOrCreate(sessionID string) (T, error) {
	return s.GetOrCreateWithContext(context.Background(), sessionID)
}

// GetOrCreateWithContext is GetOrCreate with tracing context.
func (s *Store[T]) GetOrCreateWithContext(ctx context.Context, sessionID string) (T, error) {
	var zero T
	ctx, span := s.startSpan(ctx, "store.get_or_create", sessionID)
	defer span.End()

	if err := validateSessionID(sessionID); err != nil {
		return zero, s.fail(span, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return zero, s.fail(span, err)
	}

	if value, ok := s.cache.sessions[sessionID]; ok {
		clone, err := cloneValue(value)
		if err != nil {
			return zero, s.fail(span, err)
		}
		return clone, nil
	}

	value := s.newValue()
	sessions := copyTable(s.cache.sessions)
	sessions[sessionID] = value
	if err := s.commit(sessions); err != nil {
		return zero, s.fail(span, err)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Debug().
		Str("session_key", sessionID).
		Msg("Session created")

	clone, err := cloneValue(value)
	if err != nil {
		return zero, s.fail(span, err)
	}
	return clone, nil
}

// Set replaces (or inserts) the value for the given session and persists the
// table. The write is skipped when the value is already identical.
func (s *Store[T]) Set(sessionID string, value T) error {
	return s.SetWithContext(context.Background(), sessionID, value)
}

// SetWithContext is Set with tracing context.
func (s *Store[T]) SetWithContext(ctx context.Context, sessionID string, value T) error {
	ctx, span := s.startSpan(ctx, "store.set", sessionID)
	defer span.End()

	if err := validateSessionID(sessionID); err != nil {
		return s.fail(span, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return s.fail(span, err)
	}

	if existing, ok := s.cache.sessions[sessionID]; ok && reflect.DeepEqual(existing, value) {
		return nil
	}

	// Store a clone so later caller-side mutation cannot alias the cache.
	clone, err := cloneValue(value)
	if err != nil {
		return s.fail(span, err)
	}

	sessions := copyTable(s.cache.sessions)
	sessions[sessionID] = clone
	if err := s.commit(sessions); err != nil {
		return s.fail(span, err)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Debug().
		Str("session_key", sessionID).
		Msg("Session set")
	return nil
}

// Update applies the mutation function to the session's current value
// (default-constructed if absent) and persists the table. The write is
// skipped when the mutation left an existing value unchanged.
func (s *Store[T]) Update(sessionID string, mutate func(*T)) error {
	return s.UpdateWithContext(context.Background(), sessionID, mutate)
}

// UpdateWithContext is Update with tracing context.
func (s *Store[T]) UpdateWithContext(ctx context.Context, sessionID string, mutate func(*T)) error {
	ctx, span := s.startSpan(ctx, "store.update", sessionID)
	defer span.End()

	if err := validateSessionID(sessionID); err != nil {
		return s.fail(span, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return s.fail(span, err)
	}

	current, exists := s.cache.sessions[sessionID]

	var value T
	if exists {
		var err error
		value, err = cloneValue(current)
		if err != nil {
			return s.fail(span, err)
		}
	} else {
		value = s.newValue()
	}

	mutate(&value)

	if exists && reflect.DeepEqual(current, value) {
		return nil
	}

	sessions := copyTable(s.cache.sessions)
	sessions[sessionID] = value
	if err := s.commit(sessions); err != nil {
		return s.fail(span, err)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	logger.Debug().
		Str("session_key", sessionID).
		Bool("created", !exists).
		Msg("Session updated")
	return nil
}

// List returns all session identifiers, sorted.
func (s *Store[T]) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(s.cache.sessions))
	for id := range s.cache.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Snapshot returns a deep copy of the full session table.
func (s *Store[T]) Snapshot() (map[string]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(s.cache.sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot session table: %w", err)
	}
	snapshot := make(map[string]T, len(s.cache.sessions))
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to snapshot session table: %w", err)
	}
	return snapshot, nil
}

// prune removes every session the predicate selects and persists the result.
// Used by Cleaner; the four public operations never delete.
func (s *Store[T]) prune(shouldPrune func(sessionID string, value T) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return 0, err
	}

	retained := make(map[string]T, len(s.cache.sessions))
	removed := 0
	for id, value := range s.cache.sessions {
		if shouldPrune(id, value) {
			removed++
			continue
		}
		retained[id] = value
	}

	if removed == 0 {
		return 0, nil
	}

	if err := s.commit(retained); err != nil {
		return 0, err
	}
	return removed, nil
}

// refresh consumes the watcher hint, then reconciles the cache against disk.
func (s *Store[T]) refresh() error {
	if s.watcher != nil && s.watcher.consumeDirty() {
		s.cache.invalidate()
	}
	return s.cache.ensureFresh()
}

// commit arms the watcher against the store's own rename event, then writes
// through the cache. A failed write leaves a stale ignore credit behind; that
// only makes one future reload cheaper to trigger, never a stale read.
func (s *Store[T]) commit(sessions map[string]T) error {
	if s.watcher != nil {
		s.watcher.markOwnWrite()
	}
	return s.cache.commit(sessions)
}

func (s *Store[T]) startSpan(ctx context.Context, op, sessionID string) (context.Context, trace.Span) {
	ctx = tracing.WithSessionKey(ctx, sessionID)
	return tracing.StartSpan(
		ctx,
		"sessfile.store",
		op,
		attribute.String("session_key", sessionID),
	)
}

func (s *Store[T]) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func validateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if strings.Contains(sessionID, "\x00") {
		return fmt.Errorf("session id cannot contain null bytes")
	}
	return nil
}

func copyTable[T any](sessions map[string]T) map[string]T {
	out := make(map[string]T, len(sessions)+1)
	for id, value := range sessions {
		out[id] = value
	}
	return out
}

// cloneValue deep-copies a session value through its JSON form, the same
// representation it round-trips through on disk.
func cloneValue[T any](value T) (T, error) {
	var out T
	data, err := json.Marshal(value)
	if err != nil {
		return out, fmt.Errorf("failed to clone session value: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to clone session value: %w", err)
	}
	return out, nil
}
