package store

import "fmt"

// IOError reports that the backing file could not be read, written, or
// atomically replaced. The store never retries; retry policy belongs to the
// caller.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("session storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// CorruptStateError reports that the backing file exists but its content does
// not decode as a session table. It is surfaced rather than overwritten so
// that another process's data is never silently discarded.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt session state in %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

func ioErr(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
