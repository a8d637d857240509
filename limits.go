package evbuffer

import "sync/atomic"

// capacityGuard enforces an optional soft ceiling on total_len plus any
// outstanding reservation. Grounded on biscuit's Sysatomic_t
// give/take accounting (limits.Sysatomic_t.Given/Taken), adapted from a
// system-wide resource pool to a single buffer's byte budget.
type capacityGuard struct {
	max atomic.Int64 // 0 means unlimited
}

// setMax configures the ceiling. A value of 0 disables the guard.
func (g *capacityGuard) setMax(n int64) {
	g.max.Store(n)
}

// admit reports whether growing total_len by delta would stay within
// the configured ceiling, given the buffer's current total (including
// outstanding reservations). It does not itself reserve anything —
// callers must still perform the growth atomically under the buffer's
// own lock.
func (g *capacityGuard) admit(current int64, delta int64) bool {
	max := g.max.Load()
	if max == 0 {
		return true
	}
	return current+delta <= max
}
