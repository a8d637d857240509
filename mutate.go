package evbuffer

import "io"

// Add appends a copy of p to the buffer, coalescing into the tail
// segment's tailroom when there's room before allocating a new segment.
// Returns ErrFrozen if the back is frozen, ErrOutOfMemory
// if a configured max length would be exceeded.
func (b *Buffer) Add(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b.Lock()
	if b.freezeBack {
		b.Unlock()
		return 0, wrap(ErrFrozen, "Add: back of buffer is frozen")
	}
	if !b.capacityGuard.admit(int64(b.totalLen+b.reserved), int64(len(p))) {
		b.Unlock()
		return 0, wrap(ErrOutOfMemory, "Add: exceeds configured max length")
	}

	origSize := b.totalLen
	n := b.appendLocked(p)
	b.totalLen += n
	b.counters.bytesAdded.Add(int64(n))
	if b.promCollect != nil {
		b.promCollect.bytesAdded.Add(float64(n))
	}
	// Unlocked before notify: a callback is allowed to mutate this same
	// buffer, which would deadlock on a non-reentrant lock if it were
	// still held here.
	b.Unlock()
	b.notify(origSize, n, 0)
	return n, nil
}

// appendLocked writes p into the chain's tail, coalescing into existing
// tailroom before allocating. Caller holds b.Lock().
func (b *Buffer) appendLocked(p []byte) int {
	remaining := p
	if b.tail != nil && b.tail.tailroom() > 0 {
		room := b.tail.tailroom()
		take := min(room, len(remaining))
		start := b.tail.misalign + b.tail.off
		dst := b.tail.buf[start : start+take]
		copy(dst, remaining[:take])
		b.tail.off += take
		if b.tail.off > 0 {
			b.lastWithData = b.tail
		}
		remaining = remaining[take:]
	}
	written := len(p) - len(remaining)
	for len(remaining) > 0 {
		seg := newOwnedSegment(len(remaining))
		take := min(seg.tailroom(), len(remaining))
		copy(seg.buf[:take], remaining[:take])
		seg.off = take
		b.pushSegment(seg)
		remaining = remaining[take:]
		written += take
	}
	return written
}

// Prepend inserts a copy of p before all existing bytes in the buffer,
// using any headroom in the current head segment before allocating a
// new one at the front of the chain.
func (b *Buffer) Prepend(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b.Lock()
	if b.freezeFront {
		b.Unlock()
		return 0, wrap(ErrFrozen, "Prepend: front of buffer is frozen")
	}
	if !b.capacityGuard.admit(int64(b.totalLen+b.reserved), int64(len(p))) {
		b.Unlock()
		return 0, wrap(ErrOutOfMemory, "Prepend: exceeds configured max length")
	}

	origSize := b.totalLen
	remaining := p
	if b.head != nil && b.head.headroom() > 0 {
		room := b.head.headroom()
		take := min(room, len(remaining))
		tail := remaining[len(remaining)-take:]
		b.head.misalign -= take
		copy(b.head.buf[b.head.misalign:b.head.misalign+take], tail)
		b.head.off += take
		remaining = remaining[:len(remaining)-take]
	}
	written := len(p) - len(remaining)
	for len(remaining) > 0 {
		seg := newOwnedSegment(len(remaining))
		take := min(seg.tailroom(), len(remaining))
		seg.misalign = seg.tailroom() - take
		copy(seg.buf[seg.misalign:seg.misalign+take], remaining[len(remaining)-take:])
		seg.off = take
		b.unshiftSegment(seg)
		remaining = remaining[:len(remaining)-take]
		written += take
	}
	if b.lastWithData == nil && written > 0 {
		b.lastWithData = b.head
	}
	b.cursorGen++ // every existing byte now sits at a later position

	b.totalLen += written
	b.counters.bytesAdded.Add(int64(written))
	if b.promCollect != nil {
		b.promCollect.bytesAdded.Add(float64(written))
	}
	b.Unlock()
	b.notify(origSize, written, 0)
	return written, nil
}

// AddBuffer moves every byte in src to the end of b by relinking src's
// segment chain, without copying. src is left empty. Both
// buffers' freeze gates are checked: b's back and src's front.
func (b *Buffer) AddBuffer(src *Buffer) (int, error) {
	return b.spliceBuffer(src, false)
}

// PrependBuffer moves every byte in src to the front of b by relinking,
// without copying.
func (b *Buffer) PrependBuffer(src *Buffer) (int, error) {
	return b.spliceBuffer(src, true)
}

func (b *Buffer) spliceBuffer(src *Buffer, prepend bool) (int, error) {
	if src == b {
		return 0, wrap(ErrBadArgument, "cannot splice a buffer into itself")
	}
	b.Lock()
	src.Lock()

	if prepend && b.freezeFront {
		src.Unlock()
		b.Unlock()
		return 0, wrap(ErrFrozen, "PrependBuffer: front of buffer is frozen")
	}
	if !prepend && b.freezeBack {
		src.Unlock()
		b.Unlock()
		return 0, wrap(ErrFrozen, "AddBuffer: back of buffer is frozen")
	}
	if src.freezeFront {
		src.Unlock()
		b.Unlock()
		return 0, wrap(ErrFrozen, "front of source buffer is frozen")
	}
	if src.head == nil {
		src.Unlock()
		b.Unlock()
		return 0, nil
	}
	if !b.capacityGuard.admit(int64(b.totalLen+b.reserved), int64(src.totalLen)) {
		src.Unlock()
		b.Unlock()
		return 0, wrap(ErrOutOfMemory, "splice exceeds configured max length")
	}

	n := src.totalLen
	origSize := b.totalLen

	if prepend {
		srcTail := src.tail
		srcTail.next = b.head
		b.head = src.head
		if b.tail == nil {
			b.tail = srcTail
		}
		if b.lastWithData == nil {
			b.lastWithData = src.lastWithData
		}
	} else {
		if b.tail == nil {
			b.head = src.head
		} else {
			b.tail.next = src.head
		}
		b.tail = src.tail
		if src.lastWithData != nil {
			b.lastWithData = src.lastWithData
		}
	}

	b.totalLen += n
	b.cursorGen++ // src's segments now live in a different chain

	src.head, src.tail, src.lastWithData = nil, nil, nil
	src.totalLen = 0
	src.cursorGen++

	b.counters.bytesAdded.Add(int64(n))
	if b.promCollect != nil {
		b.promCollect.bytesAdded.Add(float64(n))
	}
	srcOrig := n
	src.Unlock()
	b.Unlock()
	src.notify(srcOrig, 0, srcOrig)
	b.notify(origSize, n, 0)
	return n, nil
}

// AddReference appends a zero-copy view over externally-owned memory.
// cleanup, if non-nil, is invoked exactly once when the segment
// referencing data is finally released (drained past, or the buffer is
// closed). The caller must not mutate data while it remains referenced.
func (b *Buffer) AddReference(data []byte, cleanup func()) error {
	if len(data) == 0 {
		if cleanup != nil {
			cleanup()
		}
		return nil
	}
	b.Lock()
	if b.freezeBack {
		b.Unlock()
		return wrap(ErrFrozen, "AddReference: back of buffer is frozen")
	}
	if !b.capacityGuard.admit(int64(b.totalLen+b.reserved), int64(len(data))) {
		b.Unlock()
		return wrap(ErrOutOfMemory, "AddReference: exceeds configured max length")
	}

	seg := &segment{
		buf:     data,
		off:     len(data),
		flags:   flagPinned | flagImmutable,
		cleanup: cleanup,
		refs:    1,
	}
	origSize := b.totalLen
	b.pushSegment(seg)
	b.totalLen += len(data)
	b.counters.bytesAdded.Add(int64(len(data)))
	b.Unlock()
	b.notify(origSize, len(data), 0)
	return nil
}

// AddFile appends a zero-copy reference to length bytes of fd starting
// at offset. The buffer takes ownership of fd and closes it (via
// cleanup, if provided, in addition to the fd) once the segment is
// released. Emission prefers sendfile/splice and falls back to
// pread+Add only when the destination can't support zero-copy.
func (b *Buffer) AddFile(fd int, offset, length int64, cleanup func()) error {
	if length <= 0 {
		return wrap(ErrBadArgument, "AddFile: length must be positive")
	}
	b.Lock()
	if b.freezeBack {
		b.Unlock()
		return wrap(ErrFrozen, "AddFile: back of buffer is frozen")
	}
	if !b.capacityGuard.admit(int64(b.totalLen+b.reserved), length) {
		b.Unlock()
		return wrap(ErrOutOfMemory, "AddFile: exceeds configured max length")
	}

	seg := &segment{
		fd:      fd,
		fileOff: offset,
		fileLen: length,
		flags:   flagFile | flagImmutable,
		cleanup: cleanup,
		refs:    1,
	}
	origSize := b.totalLen
	b.pushSegment(seg)
	b.totalLen += int(length)
	b.counters.bytesAdded.Add(length)
	b.Unlock()
	b.notify(origSize, int(length), 0)
	return nil
}

// Drain removes up to n bytes from the front of the buffer, freeing any
// segment fully consumed. Returns the number of bytes actually drained.
func (b *Buffer) Drain(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	b.Lock()
	if b.freezeFront {
		b.Unlock()
		return 0, wrap(ErrFrozen, "Drain: front of buffer is frozen")
	}

	origSize := b.totalLen
	n = min(n, b.totalLen)
	drained := 0
	for drained < n && b.head != nil {
		s := b.head
		take := min(s.off, n-drained)
		if s.flags.has(flagFile) {
			s.fileOff += int64(take)
			s.fileLen -= int64(take)
		} else {
			s.misalign += take
		}
		s.off -= take
		drained += take
		b.popHeadIfEmpty()
	}
	if drained > 0 {
		b.cursorGen++ // remaining bytes moved to earlier positions
	}
	b.totalLen -= drained
	b.counters.bytesDrained.Add(int64(drained))
	if b.promCollect != nil {
		b.promCollect.bytesDrained.Add(float64(drained))
	}
	b.Unlock()
	b.notify(origSize, 0, drained)
	return drained, nil
}

// Remove copies up to len(dst) bytes out of the buffer's front into dst
// and drains them, equivalent to Read into a fixed-size slice without
// going through io.Reader's error conventions.
func (b *Buffer) Remove(dst []byte) (int, error) {
	b.Lock()
	n, err := b.copyoutLocked(dst)
	b.Unlock()
	if err != nil {
		return n, err
	}
	_, err = b.Drain(n)
	return n, err
}

// Copyout copies up to len(dst) bytes from the buffer's front into dst
// without draining them.
func (b *Buffer) Copyout(dst []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.copyoutLocked(dst)
}

func (b *Buffer) copyoutLocked(dst []byte) (int, error) {
	copied := 0
	for s := b.head; s != nil && copied < len(dst); s = s.next {
		if s.flags.has(flagFile) {
			return copied, wrap(ErrUnsupportedSegmentKind, "Copyout: cannot copy out of a file segment")
		}
		n := copy(dst[copied:], s.live())
		copied += n
	}
	return copied, nil
}

// RemoveBuffer moves up to n bytes from the front of src into the end
// of b, copying when a segment boundary falls mid-segment and relinking
// whole segments when it doesn't.
func (b *Buffer) RemoveBuffer(src *Buffer, n int) (int, error) {
	if src == b {
		return 0, wrap(ErrBadArgument, "cannot move a buffer's bytes into itself")
	}
	if n <= 0 {
		return 0, nil
	}
	b.Lock()
	src.Lock()

	if b.freezeBack || src.freezeFront {
		src.Unlock()
		b.Unlock()
		return 0, wrap(ErrFrozen, "RemoveBuffer: a relevant end is frozen")
	}

	n = min(n, src.totalLen)
	if !b.capacityGuard.admit(int64(b.totalLen+b.reserved), int64(n)) {
		src.Unlock()
		b.Unlock()
		return 0, wrap(ErrOutOfMemory, "RemoveBuffer: exceeds configured max length")
	}

	bOrig := b.totalLen
	srcOrig := src.totalLen
	moved := 0
	for moved < n && src.head != nil {
		s := src.head
		if s.off <= n-moved && !s.flags.has(flagImmutable) {
			src.head = s.next
			if src.head == nil {
				src.tail, src.lastWithData = nil, nil
			}
			s.next = nil
			b.pushSegment(s)
			moved += s.off
		} else {
			take := min(s.off, n-moved)
			buf := make([]byte, take)
			copy(buf, s.buf[s.misalign:s.misalign+take])
			if s.flags.has(flagFile) {
				s.fileOff += int64(take)
				s.fileLen -= int64(take)
			} else {
				s.misalign += take
			}
			s.off -= take
			src.popHeadIfEmpty()
			b.appendLocked(buf)
			moved += take
		}
	}

	b.totalLen += moved
	src.totalLen -= moved
	b.cursorGen++
	src.cursorGen++

	b.counters.bytesAdded.Add(int64(moved))
	src.counters.bytesDrained.Add(int64(moved))
	src.Unlock()
	b.Unlock()
	src.notify(srcOrig, 0, moved)
	b.notify(bOrig, moved, 0)
	return moved, nil
}

// Expand ensures the tail segment has at least n bytes of contiguous
// tailroom without changing Len(). An empty, owned, unreserved tail is
// reallocated in place; otherwise a new empty segment is linked as the
// tail. Useful before a sequence of small Add calls expected to
// coalesce into one segment.
func (b *Buffer) Expand(n int) error {
	if n <= 0 {
		return nil
	}
	b.Lock()
	defer b.Unlock()
	if b.tail != nil && b.tail.tailroom() >= n {
		return nil
	}
	if !b.capacityGuard.admit(int64(b.totalLen+b.reserved), 0) {
		return wrap(ErrOutOfMemory, "Expand: buffer already at configured max length")
	}
	if t := b.tail; t != nil && t.empty() && !t.flags.has(flagImmutable) && !b.isReservedLocked(t) {
		segFree(t.buf)
		t.buf = segAlloc(roundupPow2(n))
		t.misalign = 0
		return nil
	}
	seg := newOwnedSegment(n)
	b.pushSegment(seg)
	return nil
}

// Pullup guarantees the first n bytes of the buffer are contiguous in
// memory and returns a slice over them, copying segments together only
// when necessary. n of -1 means "the whole buffer". Returns
// ErrBadArgument if n exceeds Len(), ErrUnsupportedSegmentKind if the
// required span crosses a file segment.
func (b *Buffer) Pullup(n int) ([]byte, error) {
	b.Lock()
	defer b.Unlock()
	b.counters.pullupCalls.Add(1)

	if n < 0 {
		n = b.totalLen
	}
	if n > b.totalLen {
		return nil, wrap(ErrBadArgument, "Pullup: n exceeds buffer length")
	}
	if n == 0 {
		return nil, nil
	}
	if b.head != nil && b.head.off >= n {
		return b.head.live()[:n], nil
	}

	merged := newOwnedSegment(n)
	copied := 0
	s := b.head
	for s != nil && copied < n {
		if s.flags.has(flagFile) {
			return nil, wrap(ErrUnsupportedSegmentKind, "Pullup: span crosses a file segment")
		}
		take := min(s.off, n-copied)
		copy(merged.buf[copied:copied+take], s.buf[s.misalign:s.misalign+take])
		copied += take
		s = s.next
	}
	merged.off = copied

	// Splice merged in place of the segments it consumed, preserving
	// any leftover tail of the last segment it partially consumed.
	remaining := n
	cur := b.head
	for remaining > 0 && cur != nil {
		take := min(cur.off, remaining)
		cur.misalign += take
		cur.off -= take
		remaining -= take
		if cur.off == 0 {
			next := cur.next
			cur.next = nil
			cur.release()
			cur = next
		}
	}
	merged.next = cur
	b.head = merged
	if cur == nil {
		b.tail = merged
	}
	if merged.off > 0 {
		b.lastWithData = merged
	}
	b.cursorGen++
	b.counters.pullupCopied.Add(int64(copied))
	if b.promCollect != nil {
		b.promCollect.pullupBytes.Observe(float64(copied))
	}
	return merged.live(), nil
}

// Read implements io.Reader, draining from the front of the buffer.
// Returns io.EOF once the buffer is empty, matching bytes.Buffer.
func (b *Buffer) Read(p []byte) (int, error) {
	n, err := b.Remove(p)
	if err != nil {
		return n, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer by appending to the buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.Add(p)
}
