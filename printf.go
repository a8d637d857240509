package evbuffer

import (
	"fmt"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AddPrintf formats according to format and appends the result, like
// fmt.Fprintf into the buffer's tail.
func (b *Buffer) AddPrintf(format string, args ...any) (int, error) {
	return b.Add([]byte(fmt.Sprintf(format, args...)))
}

// AddVPrintf is AddPrintf taking its arguments pre-packed as a slice,
// for callers forwarding a variadic parameter of their own without
// re-spreading it.
func (b *Buffer) AddVPrintf(format string, args []any) (int, error) {
	return b.Add([]byte(fmt.Sprintf(format, args...)))
}

// AddPrintfNFC is AddPrintf followed by Unicode NFC normalization of the
// formatted text, for protocol text fields (e.g. line-oriented command
// buffers) that must compare equal byte-for-byte regardless of the
// composed/decomposed form a caller assembled them in.
func (b *Buffer) AddPrintfNFC(format string, args ...any) (int, error) {
	raw := []byte(fmt.Sprintf(format, args...))
	out, _, err := transform.Bytes(norm.NFC, raw)
	if err != nil {
		return 0, wrap(ErrBadArgument, "AddPrintfNFC: normalization failed")
	}
	return b.Add(out)
}
