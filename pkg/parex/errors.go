package parex

import (
	"errors"
	"fmt"
	"os"
)

// Exported error kinds. Library users check against these with errors.Is:
//
//	if errors.Is(err, parex.ErrPermissionDenied) { ... }
//
// PermissionDenied, NotFound, SymlinkLoop and IO are recoverable: traversal
// continues past them and they are surfaced in Results.Errors when error
// collection is enabled. All other kinds are fatal and abort the run.
var (
	// ErrPermissionDenied indicates an entry could not be read due to
	// filesystem permissions.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates a path vanished between discovery and access.
	ErrNotFound = errors.New("path not found")

	// ErrInvalidSource indicates the configured source is missing or unusable
	// (nonexistent root, not a directory, no source provided at all).
	ErrInvalidSource = errors.New("invalid source")

	// ErrSymlinkLoop indicates a symlink cycle was detected by the producer.
	ErrSymlinkLoop = errors.New("symlink loop")

	// ErrInvalidPattern indicates a match pattern could not be compiled.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidThreadCount indicates an unusable worker count was requested.
	ErrInvalidThreadCount = errors.New("invalid thread count")

	// ErrThreadPool indicates the producer's worker pool failed, e.g. a
	// worker panicked.
	ErrThreadPool = errors.New("thread pool failure")

	// ErrIO indicates a general I/O failure at a specific path.
	ErrIO = errors.New("io error")

	// ErrSource wraps an arbitrary failure reported by a Source
	// implementation.
	ErrSource = errors.New("source error")

	// ErrMatcher wraps an arbitrary failure reported by a Matcher
	// implementation.
	ErrMatcher = errors.New("matcher error")
)

// Error is a classified traversal or configuration failure. Kind is always
// one of the exported sentinel values above; Path identifies the entry the
// failure relates to when the kind is path-scoped.
type Error struct {
	Kind   error
	Path   string
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause, preserving chains from third-party
// producers.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target matches this error's kind, so errors.Is works
// against the exported sentinels.
func (e *Error) Is(target error) bool { return target == e.Kind }

// Recoverable reports whether traversal can continue past this error.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case ErrPermissionDenied, ErrNotFound, ErrSymlinkLoop, ErrIO:
		return true
	}
	return false
}

// PathError constructs an Error of the given kind scoped to path.
func PathError(kind error, path string) *Error {
	return &Error{Kind: kind, Path: path}
}

// WrapIO wraps a raw I/O failure at path, classifying permission and
// not-found conditions onto their dedicated kinds.
func WrapIO(path string, cause error) *Error {
	kind := ErrIO
	switch {
	case os.IsPermission(cause):
		kind = ErrPermissionDenied
	case os.IsNotExist(cause):
		kind = ErrNotFound
	}
	return &Error{Kind: kind, Path: path, Err: cause}
}

// SourceError wraps an arbitrary producer failure. Always fatal.
func SourceError(cause error) *Error {
	return &Error{Kind: ErrSource, Err: cause}
}

// MatcherError wraps an arbitrary matcher failure. Always fatal.
func MatcherError(cause error) *Error {
	return &Error{Kind: ErrMatcher, Err: cause}
}

// Recoverable reports whether err is a recoverable traversal error. Errors
// that do not carry a parex classification are treated as fatal.
func Recoverable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Recoverable()
	}
	return false
}

// ErrorPath extracts the path an error occurred at, if any. Callers can
// present "skipped: <path>" without inspecting kinds.
func ErrorPath(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Path
	}
	return ""
}
