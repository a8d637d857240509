package evbuffer

// End selects which side of a buffer an operation applies to.
type End int

const (
	Front End = iota
	Back
)

// Freeze prevents mutation of the selected end until a matching
// Unfreeze. The two ends are gated independently: freezing Front
// rejects Prepend/Drain, freezing Back rejects Add/AddBuffer/
// ReserveSpace. Cursor operations such as PtrSet are not gated. Freeze
// is idempotent.
func (b *Buffer) Freeze(end End) {
	b.Lock()
	defer b.Unlock()
	switch end {
	case Front:
		b.freezeFront = true
	case Back:
		b.freezeBack = true
	}
}

// Unfreeze lifts a Freeze on the selected end. Unfreezing an end that
// isn't frozen is a no-op.
func (b *Buffer) Unfreeze(end End) {
	b.Lock()
	defer b.Unlock()
	switch end {
	case Front:
		b.freezeFront = false
	case Back:
		b.freezeBack = false
	}
}

// Frozen reports whether the selected end is currently frozen.
func (b *Buffer) Frozen(end End) bool {
	b.Lock()
	defer b.Unlock()
	switch end {
	case Front:
		return b.freezeFront
	default:
		return b.freezeBack
	}
}
