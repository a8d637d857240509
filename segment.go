package evbuffer

import (
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// segment is a single contiguous byte extent in a buffer's chain — the
// unit the rest of the package calls a "chain link". Its shape mirrors
// the C evbuffer_chain: a backing array, a misalignment offset marking
// bytes already logically drained, and a live-length counter.
//
// Live bytes occupy buf[misalign : misalign+off]. The invariant
// misalign+off <= len(buf) must hold after every mutation.
type segment struct {
	buf []byte // backing storage; nil for file segments

	misalign int // leading drained bytes
	off      int // live byte count following misalign

	flags segFlag

	// fd/fileOff/fileLen describe a FILESEGMENT; buf is unused.
	fd      int
	fileOff int64
	fileLen int64

	// cleanup, if non-nil, is invoked exactly once when the segment is
	// destroyed (drained away or freed with the buffer). Used by
	// AddReference to release externally-owned memory, and by AddFile
	// for an optional caller hook; a FILESEGMENT's fd is closed by
	// release itself, not through cleanup.
	cleanup func()

	// refs counts owners of this segment; release frees it when the
	// count reaches zero. Every segment starts at 1 and nothing in this
	// package takes a further reference, so one release frees it.
	refs int32

	next *segment

	// uid lazily identifies this segment in logs and diagnostics
	// snapshots; most segments are never inspected and never pay for
	// one (see id()).
	uid uuid.UUID
}

// id returns a stable identifier for this segment, generating one on
// first use. Only diagnostics call this.
func (s *segment) id() uuid.UUID {
	if s.uid == uuid.Nil {
		s.uid = uuid.New()
	}
	return s.uid
}

// capacity returns the total addressable size of the segment's backing
// array, or 0 for a file segment. Backing arrays come from segAlloc as
// zero-length, full-capacity slices, so this deliberately reports
// cap(s.buf), not len(s.buf).
func (s *segment) capacity() int {
	return cap(s.buf)
}

// tailroom is the number of bytes that can be appended to this segment
// without reallocating.
func (s *segment) tailroom() int {
	if s.flags.has(flagFile) || s.flags.has(flagImmutable) {
		return 0
	}
	return cap(s.buf) - (s.misalign + s.off)
}

// headroom is the number of bytes available for Prepend by shrinking
// misalign.
func (s *segment) headroom() int {
	if s.flags.has(flagFile) || s.flags.has(flagImmutable) {
		return 0
	}
	return s.misalign
}

// live returns the slice of currently-readable bytes. Invalid to call on
// a file segment.
func (s *segment) live() []byte {
	return s.buf[s.misalign : s.misalign+s.off]
}

// empty reports whether the segment currently holds no live bytes.
func (s *segment) empty() bool {
	return s.off == 0
}

// newOwnedSegment allocates a fresh heap-backed segment with at least
// the requested capacity, rounded up per the allocation policy.
func newOwnedSegment(want int) *segment {
	cp := roundupPow2(want)
	return &segment{buf: segAlloc(cp), refs: 1}
}

// release drops this segment's reference and, once the count reaches
// zero, returns owned backing storage to the pool and runs cleanup.
// Pinned (externally referenced) segments never return memory to the
// pool; their cleanup hook is the sole release mechanism. File segments
// additionally have their fd closed — AddFile takes ownership of it —
// in addition to running any caller-supplied cleanup.
func (s *segment) release() {
	if s.refs > 0 {
		s.refs--
	}
	if s.refs > 0 {
		return
	}
	if s.cleanup != nil {
		cleanup := s.cleanup
		s.cleanup = nil
		cleanup()
	}
	if s.flags.has(flagFile) {
		_ = unix.Close(s.fd)
		return
	}
	if !s.flags.has(flagPinned) && s.buf != nil {
		segFree(s.buf)
	}
	s.buf = nil
}
