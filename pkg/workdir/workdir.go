// Package workdir is the reference consumer of the session store: a shared
// per-session working directory, the piece of context that stdio tool
// servers launched by different clients need to agree on.
package workdir

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/harun/sessfile/pkg/store"
)

// State is the session value persisted for each session.
type State struct {
	WorkingDirectory *string `json:"working_directory"`
}

// Get returns the session's working directory. The second return value is
// false when the session exists but has no directory set yet.
func Get(ctx context.Context, st *store.Store[State], sessionID string) (string, bool, error) {
	state, err := st.GetOrCreateWithContext(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	if state.WorkingDirectory == nil {
		return "", false, nil
	}
	return *state.WorkingDirectory, true, nil
}

// Set records the session's working directory. The path must be absolute so
// every process resolves it identically regardless of where it was launched.
func Set(ctx context.Context, st *store.Store[State], sessionID, path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("working directory must be an absolute path, got %q", path)
	}
	cleaned := filepath.Clean(path)
	return st.UpdateWithContext(ctx, sessionID, func(state *State) {
		state.WorkingDirectory = &cleaned
	})
}

// Clear unsets the session's working directory, keeping the session itself.
func Clear(ctx context.Context, st *store.Store[State], sessionID string) error {
	return st.UpdateWithContext(ctx, sessionID, func(state *State) {
		state.WorkingDirectory = nil
	})
}
