package evbuffer

import (
	"sync"

	"github.com/google/uuid"
)

// CallbackDelta describes the window of mutation a callback is being
// notified about: the buffer's total length before the window began,
// and the bytes added/deleted across every mutation coalesced into this
// notification (exactly one mutation for an immediate notification of an
// unsuspended entry; the aggregate when CbUnsuspend fires).
type CallbackDelta struct {
	OrigSize int
	NAdded   int
	NDeleted int
}

// CallbackFunc is the callback contract consumed from user code. It
// must not remove another entry; it may remove itself, add entries, and
// mutate the buffer that invoked it.
type CallbackFunc func(buf *Buffer, delta CallbackDelta, arg any)

// CallbackHandle identifies a registered callback entry. Handles are
// only valid for the buffer that produced them; removal invalidates the
// handle.
type CallbackHandle uuid.UUID

// EventLoop is the deferred-dispatch sink consumed from a host event
// loop: Schedule must coalesce repeated calls with the same key
// occurring before the loop's next tick into a single fn invocation.
// The evloop subpackage provides a minimal reference implementation.
type EventLoop interface {
	Schedule(key any, fn func())
}

// callbackEntry is one registration in the buffer's callback registry,
// grounded on biscuit's hashtable bucket entries (a mutex-guarded linked
// list with an iter helper) generalized from a keyed lookup table to an
// ordered registry of notification targets, plus the msi package's
// allocate-from-a-pool-of-handles idiom for assigning each entry a
// stable identity independent of its position in the slice.
type callbackEntry struct {
	handle    CallbackHandle
	fn        CallbackFunc
	arg       any
	enabled   bool
	suspended bool

	// Deferred/suspended accumulation. Flushed to zero once a
	// notification (immediate or deferred) has actually fired.
	pending     bool
	origSize    int
	nAdded      int
	nDeleted    int
}

// callbackRegistry holds every entry registered on a buffer.
type callbackRegistry struct {
	mu      sync.Mutex
	entries []*callbackEntry
}

// AddCallback registers fn to be notified after every successful
// mutation, and returns a handle usable with RemoveCallback,
// CbSuspend/CbUnsuspend.
func (b *Buffer) AddCallback(fn CallbackFunc, arg any) CallbackHandle {
	h := CallbackHandle(uuid.New())
	b.cbs.mu.Lock()
	b.cbs.entries = append(b.cbs.entries, &callbackEntry{
		handle: h, fn: fn, arg: arg, enabled: true,
	})
	b.cbs.mu.Unlock()
	return h
}

// RemoveCallback unregisters the entry identified by h. A callback may
// call this on itself from within its own invocation; it may not remove
// any other entry (not mechanically enforced; it's a contract the
// callback must honor).
func (b *Buffer) RemoveCallback(h CallbackHandle) bool {
	b.cbs.mu.Lock()
	defer b.cbs.mu.Unlock()
	for i, e := range b.cbs.entries {
		if e.handle == h {
			b.cbs.entries = append(b.cbs.entries[:i], b.cbs.entries[i+1:]...)
			return true
		}
	}
	return false
}

// SetCallbackEnabled toggles whether an entry fires at all, without
// discarding its registration.
func (b *Buffer) SetCallbackEnabled(h CallbackHandle, enabled bool) bool {
	e := b.findCallback(h)
	if e == nil {
		return false
	}
	b.cbs.mu.Lock()
	e.enabled = enabled
	b.cbs.mu.Unlock()
	return true
}

// CbSuspend stops h from firing; deltas continue to accumulate.
func (b *Buffer) CbSuspend(h CallbackHandle) bool {
	e := b.findCallback(h)
	if e == nil {
		return false
	}
	b.cbs.mu.Lock()
	e.suspended = true
	b.cbs.mu.Unlock()
	return true
}

// CbUnsuspend resumes h. If any delta accumulated while suspended, the
// callback fires once immediately (or is scheduled once, in deferred
// mode) with the aggregate.
func (b *Buffer) CbUnsuspend(h CallbackHandle) bool {
	e := b.findCallback(h)
	if e == nil {
		return false
	}
	b.cbs.mu.Lock()
	e.suspended = false
	fire := e.pending
	delta := CallbackDelta{OrigSize: e.origSize, NAdded: e.nAdded, NDeleted: e.nDeleted}
	if fire {
		e.pending, e.origSize, e.nAdded, e.nDeleted = false, 0, 0, 0
	}
	b.cbs.mu.Unlock()
	if fire {
		b.dispatchOne(e, delta)
	}
	return true
}

// DeferCallbacks routes future notifications through loop instead of
// invoking them inline. Passing nil disables deferral, reverting to
// immediate dispatch.
func (b *Buffer) DeferCallbacks(loop EventLoop) {
	b.Lock()
	defer b.Unlock()
	b.deferLoop = loop
}

func (b *Buffer) findCallback(h CallbackHandle) *callbackEntry {
	b.cbs.mu.Lock()
	defer b.cbs.mu.Unlock()
	for _, e := range b.cbs.entries {
		if e.handle == h {
			return e
		}
	}
	return nil
}

// pendingNotify is one mutation's delta, queued because it occurred
// while a notify() call for an earlier mutation was still dispatching.
type pendingNotify struct {
	origSize, nAdded, nDeleted int
}

// notify is invoked once per public mutation that actually changed the
// buffer, after the mutator has released the content lock — a callback
// is free to call back into this same buffer's mutators. A mutation
// triggered from inside a callback calls this again while the outer call
// is still dispatching; that call is queued rather than reentered, and
// drained in order once the outermost dispatch completes. notifying and
// notifyQueue are guarded by cbs.mu rather than the content lock, since
// the content lock is no longer held by the time this runs.
func (b *Buffer) notify(origSize, nAdded, nDeleted int) {
	if nAdded == 0 && nDeleted == 0 {
		return
	}
	b.cbs.mu.Lock()
	if b.notifying > 0 {
		b.notifyQueue = append(b.notifyQueue, pendingNotify{origSize, nAdded, nDeleted})
		b.cbs.mu.Unlock()
		return
	}
	b.notifying++
	b.cbs.mu.Unlock()

	b.dispatchAll(origSize, nAdded, nDeleted)
	for {
		b.cbs.mu.Lock()
		if len(b.notifyQueue) == 0 {
			b.notifying--
			b.cbs.mu.Unlock()
			return
		}
		next := b.notifyQueue[0]
		b.notifyQueue = b.notifyQueue[1:]
		b.cbs.mu.Unlock()
		b.dispatchAll(next.origSize, next.nAdded, next.nDeleted)
	}
}

// dispatchAll delivers one mutation's delta to every enabled entry,
// immediately, deferred through the configured event loop, or
// accumulated if the entry is suspended.
func (b *Buffer) dispatchAll(origSize, nAdded, nDeleted int) {
	b.cbs.mu.Lock()
	entries := make([]*callbackEntry, len(b.cbs.entries))
	copy(entries, b.cbs.entries)
	b.cbs.mu.Unlock()

	for _, e := range entries {
		b.cbs.mu.Lock()
		if !e.enabled {
			b.cbs.mu.Unlock()
			continue
		}
		if e.suspended {
			if !e.pending {
				e.pending = true
				e.origSize = origSize
			}
			e.nAdded += nAdded
			e.nDeleted += nDeleted
			b.cbs.mu.Unlock()
			continue
		}
		b.cbs.mu.Unlock()

		delta := CallbackDelta{OrigSize: origSize, NAdded: nAdded, NDeleted: nDeleted}
		if b.deferLoop != nil {
			b.scheduleDeferred(e, delta)
		} else {
			b.dispatchOne(e, delta)
		}
	}
}

// scheduleDeferred coalesces this delta into e's pending accumulator and
// (re-)schedules a single dispatch on the event loop, so N mutations
// before the loop's next tick produce exactly one invocation carrying
// the sum of their deltas and the origSize of the first of them.
func (b *Buffer) scheduleDeferred(e *callbackEntry, delta CallbackDelta) {
	b.cbs.mu.Lock()
	if !e.pending {
		e.pending = true
		e.origSize = delta.OrigSize
	}
	e.nAdded += delta.NAdded
	e.nDeleted += delta.NDeleted
	b.cbs.mu.Unlock()

	loop := b.deferLoop
	loop.Schedule(e.handle, func() {
		b.cbs.mu.Lock()
		if !e.pending {
			b.cbs.mu.Unlock()
			return
		}
		d := CallbackDelta{OrigSize: e.origSize, NAdded: e.nAdded, NDeleted: e.nDeleted}
		e.pending, e.origSize, e.nAdded, e.nDeleted = false, 0, 0, 0
		b.cbs.mu.Unlock()
		b.counters.deferredBatches.Add(1)
		b.dispatchOne(e, d)
	})
}

// dispatchOne invokes e.fn, recovering and logging any panic so that a
// misbehaving callback cannot unwind past the mutation that triggered
// it.
func (b *Buffer) dispatchOne(e *callbackEntry, delta CallbackDelta) {
	b.counters.callbackFires.Add(1)
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("callback", e.handle.uuid().String()).
				Msg("evbuffer: callback panicked, recovered")
		}
	}()
	e.fn(b, delta, e.arg)
}

func (h CallbackHandle) uuid() uuid.UUID {
	return uuid.UUID(h)
}
