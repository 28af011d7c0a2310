package store

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/harun/sessfile/internal/observability"
)

// PrunePredicate decides whether a session should be removed. The predicate
// sees the value as currently persisted, observed through a fresh reload.
type PrunePredicate[T any] func(sessionID string, value T) bool

// Cleaner prunes sessions on a cron schedule. Retention is caller policy: the
// store itself never deletes, so deployments that want cleanup attach a
// Cleaner with a predicate of their own. Pruning goes through the same
// refresh-then-commit path as any mutation, so it is safe to run alongside
// other processes (subject to the same lost-update window).
type Cleaner[T any] struct {
	store       *Store[T]
	shouldPrune PrunePredicate[T]
	cron        *cron.Cron
	running     bool
}

// NewCleaner creates a cleaner for the given store. The schedule uses the
// standard five-field cron syntax (or descriptors like "@daily").
func NewCleaner[T any](st *Store[T], schedule string, shouldPrune PrunePredicate[T]) (*Cleaner[T], error) {
	if shouldPrune == nil {
		return nil, fmt.Errorf("prune predicate cannot be nil")
	}

	c := &Cleaner[T]{
		store:       st,
		shouldPrune: shouldPrune,
		cron:        cron.New(),
	}

	if _, err := c.cron.AddFunc(schedule, func() {
		if _, err := c.RunOnce(); err != nil {
			log.Error().Err(err).Str("path", st.Path()).Msg("Failed to prune sessions")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	return c, nil
}

// Start begins scheduled pruning.
func (c *Cleaner[T]) Start() error {
	if c.running {
		return fmt.Errorf("cleaner is already running")
	}
	c.running = true
	c.cron.Start()

	log.Info().Str("path", c.store.Path()).Msg("Session cleaner started")
	return nil
}

// Stop halts scheduled pruning. A prune already in flight runs to completion.
func (c *Cleaner[T]) Stop() error {
	if !c.running {
		return fmt.Errorf("cleaner is not running")
	}
	c.running = false
	<-c.cron.Stop().Done()

	log.Info().Msg("Session cleaner stopped")
	return nil
}

// IsRunning returns whether scheduled pruning is active.
func (c *Cleaner[T]) IsRunning() bool {
	return c.running
}

// RunOnce prunes immediately and returns how many sessions were removed.
func (c *Cleaner[T]) RunOnce() (int, error) {
	removed, err := c.store.prune(c.shouldPrune)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	if removed > 0 {
		observability.RecordSessionsPruned(removed)
		log.Info().
			Int("removed", removed).
			Str("path", c.store.Path()).
			Msg("Pruned sessions")
	}
	return removed, nil
}
