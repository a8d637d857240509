package evbuffer

import "sync"

// lockShim is the buffer's optional external-mutex association.
// Grounded on biscuit's Accnt_t, which embeds a sync.Mutex so a single
// struct can both accumulate counters and serialize access to them;
// here the mutex is detachable (EnableLocking may supply the caller's
// own sync.Locker) rather than always-embedded, since most evbuffer
// callers run single-threaded and shouldn't pay for a mutex they never
// configured.
type lockShim struct {
	mu sync.Locker // nil until EnableLocking is called
}

// EnableLocking associates lock with the buffer, allocating a fresh
// *sync.Mutex when lock is nil. Once enabled, every mutating and many
// inspecting operations acquire it for the duration of the call.
// Mutators release it before running the callbacks for that mutation,
// so a callback may call back into the same buffer.
func (b *Buffer) EnableLocking(lock sync.Locker) {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	b.lockShim.mu = lock
}

// Lock acquires the buffer's mutex, if one has been configured via
// EnableLocking. It is a no-op otherwise, matching the original's
// single-threaded-by-default behavior.
func (b *Buffer) Lock() {
	if b.lockShim.mu != nil {
		b.lockShim.mu.Lock()
	}
}

// Unlock releases the buffer's mutex, if configured.
func (b *Buffer) Unlock() {
	if b.lockShim.mu != nil {
		b.lockShim.mu.Unlock()
	}
}
