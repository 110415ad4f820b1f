// Package errs defines the error kinds of spec §7 as sentinel values, so
// every layer of Tiger Cache (store, index, search, snapshot) can return
// and test for the same small set of kinds with errors.Is, without the
// layers importing each other's packages or the top-level facade.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a document or key absent where required.
	ErrNotFound = errors.New("tigercache: not found")
	// ErrDuplicateID marks a re-insertion under strict duplicate-id mode.
	ErrDuplicateID = errors.New("tigercache: duplicate document id")
	// ErrSerialization marks malformed on-disk bytes or a version mismatch.
	ErrSerialization = errors.New("tigercache: serialization error")
	// ErrInvalidArgument marks an out-of-range option or an empty document id.
	ErrInvalidArgument = errors.New("tigercache: invalid argument")
	// ErrCorruption marks a checksum mismatch in a snapshot file; fatal for
	// the index instance that encounters it.
	ErrCorruption = errors.New("tigercache: corruption detected")
)

// BackendError wraps an underlying KV store failure. The original error is
// reachable via errors.Unwrap, and errors.Is(err, ErrBackend) holds for
// every BackendError.
type BackendError struct {
	Message string
	Cause   error
}

// ErrBackend is the sentinel BackendError.Is compares against.
var ErrBackend = errors.New("tigercache: backend error")

// NewBackendError wraps cause as a BackendError carrying message.
func NewBackendError(message string, cause error) *BackendError {
	return &BackendError{Message: message, Cause: cause}
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tigercache: backend error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("tigercache: backend error: %s", e.Message)
}

func (e *BackendError) Unwrap() error { return e.Cause }

// Is reports whether target is the ErrBackend sentinel, so callers can
// write errors.Is(err, errs.ErrBackend) without a type assertion.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// IOError wraps a filesystem error encountered opening or closing a
// backend path.
type IOError struct {
	Path  string
	Cause error
}

// ErrIO is the sentinel IOError.Is compares against.
var ErrIO = errors.New("tigercache: io error")

// NewIOError wraps cause as an IOError for the given path.
func NewIOError(path string, cause error) *IOError {
	return &IOError{Path: path, Cause: cause}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("tigercache: io error: %s: %v", e.Path, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }

// Is reports whether target is the ErrIO sentinel.
func (e *IOError) Is(target error) bool { return target == ErrIO }
