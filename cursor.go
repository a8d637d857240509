package evbuffer

// SeekMode selects how PtrSet interprets its pos argument.
type SeekMode int

const (
	// SeekSet positions the cursor at an absolute offset from the start
	// of the buffer.
	SeekSet SeekMode = iota
	// SeekAdd advances the cursor by pos bytes from its current
	// position.
	SeekAdd
)

// Ptr is a position within a buffer that survives across mutations only
// as long as its generation matches the buffer's current cursorGen. Any
// mutation that can move or unlink the bytes a Ptr refers to bumps the
// generation, so a stale Ptr is detected rather than silently
// dereferencing freed memory. Buffer generations start at 1, so the zero
// value Ptr{} carries no generation: PtrSet, SearchFrom and SearchEOL
// accept it as an unstamped cursor at offset 0.
type Ptr struct {
	gen    uint64
	seg    *segment
	segOff int
	pos    int
}

// Pos returns the cursor's absolute byte offset from the start of the
// buffer.
func (p Ptr) Pos() int { return p.pos }

// valid reports whether p was stamped with b's current generation.
func (b *Buffer) valid(p Ptr) bool {
	return p.gen == b.cursorGen
}

// PtrSet resolves pos (absolute or relative to an existing cursor,
// per mode) to a fresh Ptr. Returns ErrBadArgument if the target
// position is negative or past Len(), or if mode is SeekAdd and base
// is stale.
func (b *Buffer) PtrSet(base Ptr, pos int, mode SeekMode) (Ptr, error) {
	b.Lock()
	defer b.Unlock()

	target := pos
	if mode == SeekAdd {
		if base.gen != 0 && !b.valid(base) {
			return Ptr{}, wrap(ErrBadArgument, "PtrSet: base cursor is stale")
		}
		target = base.pos + pos
	}
	if target < 0 || target > b.totalLen {
		return Ptr{}, wrap(ErrBadArgument, "PtrSet: position out of range")
	}

	if target == b.totalLen {
		return Ptr{gen: b.cursorGen, seg: nil, segOff: 0, pos: target}, nil
	}

	remaining := target
	from := b.head
	if mode == SeekAdd && base.gen != 0 && base.seg != nil && pos >= 0 {
		// A current base already knows its segment; walk on from there.
		from = base.seg
		remaining = base.segOff + pos
	}
	for s := from; s != nil; s = s.next {
		if !s.flags.has(flagFile) && remaining < s.off {
			return Ptr{gen: b.cursorGen, seg: s, segOff: remaining, pos: target}, nil
		}
		if s.flags.has(flagFile) && remaining < int(s.fileLen) {
			return Ptr{gen: b.cursorGen, seg: s, segOff: remaining, pos: target}, nil
		}
		segLen := s.off
		if s.flags.has(flagFile) {
			segLen = int(s.fileLen)
		}
		remaining -= segLen
	}
	return Ptr{}, wrap(ErrBadArgument, "PtrSet: position out of range")
}

// nextLiveSegment walks the chain for the first segment after s that
// holds live bytes, for cursor advancement that crosses a boundary.
// Caller holds b.Lock().
func (b *Buffer) nextLiveSegment(s *segment) *segment {
	for n := s.next; n != nil; n = n.next {
		if !n.flags.has(flagFile) && n.off > 0 {
			return n
		}
		if n.flags.has(flagFile) && n.fileLen > 0 {
			return n
		}
	}
	return nil
}
