package evbuffer

// Segment flag bits, mirroring the C evbuffer's EVBUFFER_* chain flags.
type segFlag uint8

const (
	// flagPinned marks a segment wrapping externally-owned memory handed
	// in via AddReference. Pullup never copies out of or into it.
	flagPinned segFlag = 1 << iota
	// flagImmutable marks a segment that must never be appended to again
	// (used for referenced and file segments).
	flagImmutable
	// flagFile marks a segment backed by a file descriptor rather than
	// heap memory; opaque to Pullup and Remove.
	flagFile
)

func (f segFlag) has(bit segFlag) bool {
	return f&bit != 0
}
