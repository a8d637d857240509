package evbuffer

// IOVec is one writable region handed out by ReserveSpace, ready to be
// passed to a scatter-write syscall or filled directly by the caller.
type IOVec struct {
	Base []byte
}

// ReserveSpace grows the buffer's tail by at least n bytes of writable,
// as-yet-uncommitted capacity and returns it as one or more IOVecs. Only
// one reservation is tracked at a time: calling it again with the same n
// before an intervening CommitSpace re-returns the same IOVecs, and
// calling it with a different n implicitly invalidates the outstanding
// reservation and builds a fresh one. Reserved segments are excluded
// from draining until committed, even if they hold no live bytes yet.
func (b *Buffer) ReserveSpace(n int) ([]IOVec, error) {
	if n <= 0 {
		return nil, wrap(ErrBadArgument, "ReserveSpace: n must be positive")
	}
	b.Lock()
	defer b.Unlock()

	if len(b.reservationSegs) > 0 {
		if n == b.reserved {
			vecs := make([]IOVec, len(b.reservationSegs))
			for i, seg := range b.reservationSegs {
				start := seg.misalign + seg.off
				vecs[i] = IOVec{Base: seg.buf[start : start+b.reservationCaps[i]]}
			}
			return vecs, nil
		}
		b.reservationSegs, b.reservationCaps = nil, nil
		b.reserved = 0
	}
	if b.freezeBack {
		return nil, wrap(ErrFrozen, "ReserveSpace: back of buffer is frozen")
	}
	if !b.capacityGuard.admit(int64(b.totalLen+b.reserved), int64(n)) {
		return nil, wrap(ErrOutOfMemory, "ReserveSpace: exceeds configured max length")
	}

	var vecs []IOVec
	remaining := n

	if b.tail != nil && b.tail.tailroom() > 0 {
		take := min(b.tail.tailroom(), remaining)
		start := b.tail.misalign + b.tail.off
		vecs = append(vecs, IOVec{Base: b.tail.buf[start : start+take]})
		b.reservationSegs = append(b.reservationSegs, b.tail)
		b.reservationCaps = append(b.reservationCaps, take)
		remaining -= take
	}
	for remaining > 0 {
		seg := newOwnedSegment(remaining)
		b.pushSegment(seg)
		take := min(seg.tailroom(), remaining)
		vecs = append(vecs, IOVec{Base: seg.buf[:take]})
		b.reservationSegs = append(b.reservationSegs, seg)
		b.reservationCaps = append(b.reservationCaps, take)
		remaining -= take
	}

	b.reserved = n
	return vecs, nil
}

// CommitSpace resolves the outstanding reservation, marking the first
// used bytes of it (in the order IOVecs were returned) as live. used
// must not exceed the reserved amount. Any reserved capacity beyond
// used is released back to tailroom for a future Add to claim.
func (b *Buffer) CommitSpace(used int) error {
	b.Lock()

	if len(b.reservationSegs) == 0 {
		b.Unlock()
		return wrap(ErrBadArgument, "CommitSpace: no reservation outstanding")
	}
	if used < 0 || used > b.reserved {
		b.Unlock()
		return wrap(ErrBadArgument, "CommitSpace: used exceeds the outstanding reservation")
	}

	origSize := b.totalLen
	remaining := used
	for i, seg := range b.reservationSegs {
		take := min(b.reservationCaps[i], remaining)
		seg.off += take
		if seg.off > 0 {
			b.lastWithData = seg
		}
		remaining -= take
	}

	b.reservationSegs, b.reservationCaps = nil, nil
	b.reserved = 0
	b.totalLen += used
	b.counters.bytesAdded.Add(int64(used))
	if b.promCollect != nil {
		b.promCollect.bytesAdded.Add(float64(used))
	}
	b.popHeadIfEmpty()
	b.Unlock()
	b.notify(origSize, used, 0)
	return nil
}
