package store

import (
	"fmt"
	"os"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
)

// fileAdapter reads and atomically rewrites the single backing file. It knows
// nothing about session semantics; it only deals in bytes and fingerprints.
type fileAdapter struct {
	path string
}

func newFileAdapter(path string) (*fileAdapter, error) {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, ioErr("stat", dir, err)
	}
	if !info.IsDir() {
		return nil, ioErr("stat", dir, fmt.Errorf("not a directory"))
	}
	return &fileAdapter{path: path}, nil
}

// Stat returns the metadata half of the current fingerprint without reading
// content. The second return value is false when the file does not exist.
func (a *fileAdapter) Stat() (Fingerprint, bool, error) {
	info, err := os.Stat(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Fingerprint{}, false, nil
		}
		return Fingerprint{}, false, ioErr("stat", a.path, err)
	}
	return Fingerprint{ModTime: info.ModTime(), Size: info.Size()}, true, nil
}

// Read returns the current file content and its full fingerprint. An absent
// file yields empty content and the sentinel fingerprint.
func (a *fileAdapter) Read() ([]byte, Fingerprint, error) {
	content, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Fingerprint{}, nil
		}
		return nil, Fingerprint{}, ioErr("read", a.path, err)
	}

	info, err := os.Stat(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Fingerprint{}, nil
		}
		return nil, Fingerprint{}, ioErr("stat", a.path, err)
	}

	fp := Fingerprint{
		ModTime: info.ModTime(),
		Size:    int64(len(content)),
		Sum:     sumContent(content),
	}
	return content, fp, nil
}

// Write replaces the file content atomically: the bytes go to a uniquely
// named temp file in the same directory, are flushed to storage, and the temp
// file is renamed over the target. On failure the original file is intact and
// the temp file is removed.
func (a *fileAdapter) Write(content []byte) (Fingerprint, error) {
	suffix, err := gonanoid.New()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to generate temp suffix: %w", err)
	}
	tempPath := fmt.Sprintf("%s.%s.tmp", a.path, suffix)

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return Fingerprint{}, ioErr("create temp", tempPath, err)
	}

	if _, err := file.Write(content); err != nil {
		file.Close()
		os.Remove(tempPath)
		return Fingerprint{}, ioErr("write", tempPath, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return Fingerprint{}, ioErr("sync", tempPath, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return Fingerprint{}, ioErr("close", tempPath, err)
	}

	if err := os.Rename(tempPath, a.path); err != nil {
		os.Remove(tempPath)
		return Fingerprint{}, ioErr("rename", a.path, err)
	}

	info, err := os.Stat(a.path)
	if err != nil {
		return Fingerprint{}, ioErr("stat", a.path, err)
	}

	log.Trace().Str("path", a.path).Int("bytes", len(content)).Msg("Session file replaced")

	return Fingerprint{
		ModTime: info.ModTime(),
		Size:    int64(len(content)),
		Sum:     sumContent(content),
	}, nil
}
