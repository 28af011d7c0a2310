package workdir

import (
	"os"

	"github.com/harun/sessfile/pkg/store"
)

// ShouldPrune removes sessions whose working directory no longer exists on
// this machine. Sessions without a directory set are kept; they carry no
// stale information.
func ShouldPrune(sessionID string, state State) bool {
	if state.WorkingDirectory == nil {
		return false
	}
	_, err := os.Stat(*state.WorkingDirectory)
	return os.IsNotExist(err)
}

var _ store.PrunePredicate[State] = ShouldPrune
