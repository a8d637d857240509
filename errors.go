package evbuffer

import "github.com/pkg/errors"

// Sentinel errors returned by the public API. Every error returned from
// this package satisfies errors.Is against exactly one of these, and
// carries a stack trace attached at the call site via pkg/errors; the
// one exception is ReadLimitedContext, which returns ctx.Err() as is
// when its context is already done.
var (
	// ErrOutOfMemory is returned when a segment allocation failed, or
	// when a configured capacity guard (WithMaxLen) rejected growth.
	ErrOutOfMemory = errors.New("evbuffer: out of memory")

	// ErrFrozen is returned when a mutation is rejected by the front or
	// back freeze gate.
	ErrFrozen = errors.New("evbuffer: buffer frozen")

	// ErrBadArgument covers invalid arguments: CommitSpace exceeding the
	// outstanding reservation, PtrSet past the end with SET, negative
	// lengths, and stale cursor generations.
	ErrBadArgument = errors.New("evbuffer: bad argument")

	// ErrIO reports an underlying syscall failure. The buffer reflects any
	// partial transfer that actually occurred before the error. The
	// syscall's own errno is not attached to the returned error.
	ErrIO = errors.New("evbuffer: i/o error")

	// ErrUnsupportedSegmentKind is returned when Pullup or Remove is
	// attempted across a FILESEGMENT.
	ErrUnsupportedSegmentKind = errors.New("evbuffer: unsupported on file segment")

	// ErrNotFound is never returned as a Go error from this package's
	// public API; it documents the ok == false results returned by
	// Search/SearchFrom and Readln when nothing is found. Kept exported
	// so callers that want to treat "not found" uniformly with errors.Is
	// can wrap it themselves.
	ErrNotFound = errors.New("evbuffer: not found")
)

func wrap(sentinel error, msg string) error {
	return errors.WithMessage(errors.WithStack(sentinel), msg)
}
