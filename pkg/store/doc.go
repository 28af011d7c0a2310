// Package store persists per-session state shared across independently
// launched processes, backed by a single JSON file.
//
// Invariants:
// - Every operation reconciles the in-memory table against disk before use.
// - Writes are atomic (temp file + rename); readers never see partial content.
// - A corrupt backing file surfaces as an error, it is never silently reset.
//
// Usage:
//
//	st, _ := store.New[MyState](store.Options[MyState]{Path: "/tmp/app/sessions.json"})
//	_ = st.Update("default", func(s *MyState) { s.Counter++ })
//	state, ok, _ := st.Get("default")
//	_, _ = state, ok
package store
