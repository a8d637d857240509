package evbuffer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Buffer is a chained, segmented byte buffer. Reads drain from the
// head of the chain; writes append to the tail. Every segment the chain
// currently owns is reachable from head via next; tail is always the
// last segment in that walk, kept as a separate pointer purely to make
// Add an O(1) operation instead of an O(chain length) walk.
//
// The zero value is not usable; construct with New.
type Buffer struct {
	lockShim

	head *segment
	tail *segment

	// lastWithData records the most recent segment that received live
	// bytes. It is maintained by the mutators but not consulted by the
	// read paths, which always walk the chain from head.
	lastWithData *segment

	totalLen int

	freezeFront bool
	freezeBack  bool

	// reserved is the sum of capacity handed out by the outstanding
	// ReserveSpace call, not yet resolved by a matching CommitSpace. At
	// most one reservation may be outstanding at a time.
	// reservationSegs/reservationCaps run in parallel, recording which
	// segments the reservation spans and how much of each is reserved,
	// so CommitSpace knows how to distribute the committed byte count
	// without re-deriving it from tailroom (which may have changed if
	// anything else inspected, but never mutated, the chain meanwhile).
	reserved        int
	reservationSegs []*segment
	reservationCaps []int

	// notifying is nonzero while a notify() call is actively dispatching
	// to callbacks. A mutation performed from inside a callback calls
	// notify() again while this is still set; rather than reenter
	// dispatch (and risk a callback observing another callback's
	// in-flight delta, or deadlocking if locking is enabled), that call
	// is queued and drained once the outermost dispatch finishes, so
	// every enabled entry still receives exactly one notification per
	// mutation, including ones a callback itself caused.
	notifying   int
	notifyQueue []pendingNotify

	// cursorGen increments on every mutation that can move live bytes
	// within a segment or unlink a segment outright, invalidating any
	// Ptr stamped with an older generation.
	cursorGen uint64

	cbs       callbackRegistry
	deferLoop EventLoop

	counters      counters
	capacityGuard capacityGuard
	promCollect   *promCollectors
	warn          distinctWarner
}

// Option configures a Buffer at construction time.
type Option func(*Buffer)

// WithMaxLen installs a soft ceiling on total buffered bytes,
// including any outstanding reservation. Mutations that would exceed it
// fail with ErrOutOfMemory instead of growing the chain.
func WithMaxLen(n int64) Option {
	return func(b *Buffer) { b.capacityGuard.setMax(n) }
}

// WithLock installs an external mutex up front, equivalent to calling
// EnableLocking immediately after New.
func WithLock(lock sync.Locker) Option {
	return func(b *Buffer) { b.EnableLocking(lock) }
}

// WithMetrics registers the buffer's lifetime counters with reg under
// namespace, in addition to the always-on in-process Stats snapshot.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(b *Buffer) { b.promCollect = newPromCollectors(reg, namespace) }
}

// New constructs an empty Buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{cursorGen: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Len returns the total number of live bytes currently buffered.
func (b *Buffer) Len() int {
	b.Lock()
	defer b.Unlock()
	return b.totalLen
}

// contiguousHead reports the number of bytes readable from the buffer's
// head segment without crossing into the next one, i.e. how much
// Pullup(n) for n within this amount would avoid copying. Caller must
// hold b.Lock().
func (b *Buffer) contiguousHead() int {
	if b.head == nil {
		return 0
	}
	return b.head.off
}

// pushSegment appends seg to the tail of the chain and updates
// bookkeeping. Caller must hold b.Lock().
func (b *Buffer) pushSegment(seg *segment) {
	if b.tail == nil {
		b.head = seg
		b.tail = seg
	} else {
		b.tail.next = seg
		b.tail = seg
	}
	if seg.off > 0 {
		b.lastWithData = seg
	}
	b.counters.segmentsAlloc.Add(1)
	if b.promCollect != nil {
		b.promCollect.segmentsAlloc.Inc()
	}
}

// unshiftSegment prepends seg to the head of the chain. Caller must
// hold b.Lock().
func (b *Buffer) unshiftSegment(seg *segment) {
	seg.next = b.head
	b.head = seg
	if b.tail == nil {
		b.tail = seg
	}
	b.counters.segmentsAlloc.Add(1)
	if b.promCollect != nil {
		b.promCollect.segmentsAlloc.Inc()
	}
}

// popHeadIfEmpty unlinks b.head while it holds no live bytes, returning
// its backing storage to the pool. A sole remaining owned segment is
// kept instead, reset to misalign 0, for reuse by later appends. Caller
// must hold b.Lock().
func (b *Buffer) popHeadIfEmpty() {
	for b.head != nil && b.head.empty() && !b.isReservedLocked(b.head) {
		dead := b.head
		if dead.next == nil && !dead.flags.has(flagImmutable) {
			dead.misalign = 0
			b.lastWithData = nil
			b.cursorGen++
			return
		}
		b.head = dead.next
		if b.head == nil {
			b.tail = nil
			b.lastWithData = nil
		}
		dead.next = nil
		dead.release()
		b.counters.segmentsFreed.Add(1)
		if b.promCollect != nil {
			b.promCollect.segmentsFreed.Inc()
		}
		b.cursorGen++
	}
}

// isReservedLocked reports whether seg is part of the outstanding
// reservation, if any. Caller holds b.Lock().
func (b *Buffer) isReservedLocked(seg *segment) bool {
	for _, s := range b.reservationSegs {
		if s == seg {
			return true
		}
	}
	return false
}

// Close releases every segment currently in the chain, running each
// one's cleanup hook exactly once. Afterwards the chain is empty, as in
// a freshly constructed Buffer; registered callbacks, freeze state and
// construction options are kept.
func (b *Buffer) Close() error {
	b.Lock()
	defer b.Unlock()

	for s := b.head; s != nil; {
		next := s.next
		s.next = nil
		s.release()
		s = next
	}
	b.head, b.tail, b.lastWithData = nil, nil, nil
	b.totalLen = 0
	b.reserved = 0
	b.reservationSegs, b.reservationCaps = nil, nil
	b.cursorGen++
	return nil
}
