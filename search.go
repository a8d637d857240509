package evbuffer

// Search finds the first occurrence of what starting at the beginning
// of the buffer. It is a convenience wrapper over SearchFrom.
func (b *Buffer) Search(what []byte) (Ptr, bool) {
	start, _ := b.PtrSet(Ptr{}, 0, SeekSet)
	return b.SearchFrom(start, what)
}

// SearchFrom finds the first occurrence of what at or after start,
// returning a Ptr positioned at the match and true, or the zero Ptr and
// false if what does not occur. The returned Ptr can be re-supplied to
// a later SearchFrom call (after advancing past the match) to resume
// scanning without re-examining bytes already ruled out — a single
// logical search spanning any number of calls never re-walks the same
// prefix twice, even though each call itself is a fresh linear scan.
//
// The scan advances a single rolling cursor across the segment chain
// rather than resolving each candidate position from b.head, keeping
// the whole call to a single pass over the buffer's bytes (worst case
// O(Len()*len(what)), not O(Len()^2*len(what)) for a chain of many
// small segments.
//
// A match is never reported across a file segment's bytes: file-backed
// content is opaque to Search.
func (b *Buffer) SearchFrom(start Ptr, what []byte) (Ptr, bool) {
	b.Lock()
	defer b.Unlock()
	b.counters.searchCalls.Add(1)

	if len(what) == 0 {
		if !b.valid(start) && start.gen != 0 {
			return Ptr{}, false
		}
		return start, true
	}
	if start.gen != 0 && !b.valid(start) {
		return Ptr{}, false
	}

	var cur segCursor
	if start.gen == 0 {
		cur = segCursor{seg: b.head}
	} else {
		cur = segCursor{seg: start.seg, off: start.segOff}
	}

	last := b.totalLen - len(what)
	for pos := start.pos; pos <= last; pos++ {
		if b.matchAtLocked(cur, what) {
			return Ptr{gen: b.cursorGen, seg: cur.seg, segOff: cur.off, pos: pos}, true
		}
		cur.next()
	}
	return Ptr{}, false
}

// matchAtLocked reports whether what occurs starting at from, without
// crossing any file segment. from is passed by value: the caller's
// cursor is left unadvanced. Caller holds b.Lock().
func (b *Buffer) matchAtLocked(from segCursor, what []byte) bool {
	peek := from
	for i := 0; i < len(what); i++ {
		c, ok := peek.next()
		if !ok || c != what[i] {
			return false
		}
	}
	return true
}

// segCursor is a position within the segment chain expressed as a
// segment and a live-relative offset into it, the same terms Ptr uses.
// Unlike a Ptr it is not generation-stamped — it is only ever used for
// the duration of a single locked call and is invalidated by anything
// that mutates the chain.
type segCursor struct {
	seg *segment
	off int
}

// next returns the byte at the cursor and advances it by one position,
// skipping over exhausted or empty segments. ok is false at the end of
// the buffer or when the byte falls inside a file segment — file-backed
// bytes are opaque to Search, but the cursor still advances past them
// one virtual position at a time so absolute offsets stay in sync with
// byteAtLocked's accounting.
func (c *segCursor) next() (byte, bool) {
	for c.seg != nil {
		segLen := c.seg.off
		isFile := c.seg.flags.has(flagFile)
		if isFile {
			segLen = int(c.seg.fileLen)
		}
		if c.off < segLen {
			if isFile {
				c.off++
				return 0, false
			}
			at := c.seg.misalign + c.off
			v := c.seg.buf[at : at+1][0]
			c.off++
			return v, true
		}
		c.seg = c.seg.next
		c.off = 0
	}
	return 0, false
}

// byteAtLocked returns the live byte at absolute offset pos, or
// ok=false if pos falls inside a file segment or past the end of the
// buffer. Caller holds b.Lock().
func (b *Buffer) byteAtLocked(pos int) (byte, bool) {
	remaining := pos
	for s := b.head; s != nil; s = s.next {
		segLen := s.off
		if s.flags.has(flagFile) {
			segLen = int(s.fileLen)
		}
		if remaining < segLen {
			if s.flags.has(flagFile) {
				return 0, false
			}
			at := s.misalign + remaining
			return s.buf[at : at+1][0], true
		}
		remaining -= segLen
	}
	return 0, false
}
