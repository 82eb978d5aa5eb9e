// Package rofs provides read-only user-space access to FAT32 and Quark disk
// images: mount, path lookup, directory iteration, and byte-range file reads.
package rofs

import "fmt"

// DriverError is the error type returned by every operation in this module.
// It carries a fixed Kind so callers can switch on the failure mode (see the
// Err* sentinels below) while still supporting arbitrary added context.
type DriverError interface {
	error
	Kind() Kind

	// WithMessage returns a new DriverError with additional context appended
	// to the message. The original error is preserved and reachable via
	// errors.Unwrap.
	WithMessage(message string) DriverError

	// WrapError returns a new DriverError that wraps err, preserving this
	// error's Kind.
	WrapError(err error) DriverError

	Unwrap() error
}

// Kind identifies the class of failure. See spec §7.
type Kind int

const (
	KindInvalidArgument Kind = iota
	KindBadFilesystemType
	KindIOFailed
	KindNotFound
	KindNotADirectory
	KindInvalidCluster
	KindUnexpectedEOF
	KindOutOfMemory
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindBadFilesystemType:
		return "bad filesystem type"
	case KindIOFailed:
		return "input/output error"
	case KindNotFound:
		return "no such file or directory"
	case KindNotADirectory:
		return "not a directory"
	case KindInvalidCluster:
		return "invalid cluster"
	case KindUnexpectedEOF:
		return "unexpected end of file"
	case KindOutOfMemory:
		return "out of memory"
	default:
		return "unknown error"
	}
}

// sentinelError is the root error for a Kind, with no extra context. It is a
// DriverError in its own right, mirroring the teacher's DiskoError.
type sentinelError Kind

func (e sentinelError) Kind() Kind    { return Kind(e) }
func (e sentinelError) Error() string { return Kind(e).String() }
func (e sentinelError) Unwrap() error { return nil }

func (e sentinelError) WithMessage(message string) DriverError {
	return customDriverError{
		kind:    Kind(e),
		message: fmt.Sprintf("%s: %s", Kind(e).String(), message),
		wrapped: e,
	}
}

func (e sentinelError) WrapError(err error) DriverError {
	return customDriverError{
		kind:    Kind(e),
		message: fmt.Sprintf("%s: %s", Kind(e).String(), err.Error()),
		wrapped: err,
	}
}

// Sentinel errors, one per Kind. Use DriverError.Kind() (or IsNotFound, etc.)
// to test for a specific failure mode; use WithMessage/WrapError to add
// context without losing it.
var (
	ErrInvalidArgument   DriverError = sentinelError(KindInvalidArgument)
	ErrBadFilesystemType DriverError = sentinelError(KindBadFilesystemType)
	ErrIOFailed          DriverError = sentinelError(KindIOFailed)
	ErrNotFound          DriverError = sentinelError(KindNotFound)
	ErrNotADirectory     DriverError = sentinelError(KindNotADirectory)
	ErrInvalidCluster    DriverError = sentinelError(KindInvalidCluster)
	ErrUnexpectedEOF     DriverError = sentinelError(KindUnexpectedEOF)
	ErrOutOfMemory       DriverError = sentinelError(KindOutOfMemory)
)

// customDriverError is a DriverError carrying additional context layered on
// top of a sentinel.
type customDriverError struct {
	kind    Kind
	message string
	wrapped error
}

func (e customDriverError) Kind() Kind    { return e.kind }
func (e customDriverError) Error() string { return e.message }
func (e customDriverError) Unwrap() error { return e.wrapped }

// Is reports whether target is the sentinel for this error's Kind, so that
// errors.Is matches the sentinel even after WrapError has put a foreign error
// in the Unwrap chain.
func (e customDriverError) Is(target error) bool {
	s, ok := target.(sentinelError)
	return ok && Kind(s) == e.kind
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		kind:    e.kind,
		message: fmt.Sprintf("%s: %s", e.message, message),
		wrapped: e,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		kind:    e.kind,
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		wrapped: err,
	}
}

// IsNotFound reports whether err is, or wraps, a NotFound DriverError.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsNotADirectory reports whether err is, or wraps, a NotADirectory DriverError.
func IsNotADirectory(err error) bool { return hasKind(err, KindNotADirectory) }

func hasKind(err error, kind Kind) bool {
	for err != nil {
		if de, ok := err.(DriverError); ok {
			if de.Kind() == kind {
				return true
			}
			err = de.Unwrap()
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
