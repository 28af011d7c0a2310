package store

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// mtimeGranularity is the coarsest file-modification-time resolution the
// store assumes. A stat-level match younger than this window is re-verified
// by content hash, since two writes inside one clock tick share an mtime.
const mtimeGranularity = 2 * time.Second

// Fingerprint summarizes the state of the backing file at a point in time.
// The zero value is the sentinel for "file does not exist".
type Fingerprint struct {
	ModTime time.Time
	Size    int64
	Sum     string
}

// IsZero reports whether the fingerprint is the absent-file sentinel.
func (f Fingerprint) IsZero() bool {
	return f.ModTime.IsZero() && f.Size == 0 && f.Sum == ""
}

// statEqual compares only the metadata half of the fingerprint. It is the
// cheap check used before deciding whether to re-read the file.
func (f Fingerprint) statEqual(other Fingerprint) bool {
	return f.ModTime.Equal(other.ModTime) && f.Size == other.Size
}

func sumContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
