package evbuffer

import "github.com/bytedance/gopkg/lang/mcache"

// minSegmentSize is the smallest backing allocation handed out for an
// owned (non-pinned, non-file) segment.
const minSegmentSize = 256

// segAlloc allocates a zero-length, cap-capacity backing array for a new
// owned segment. Backing arrays are obtained from a size-classed pool
// (mcache) rather than a bare make([]byte, n) so that sustained
// add/drain churn — the common case for request/response framing — does
// not produce GC pressure proportional to byte throughput.
func segAlloc(capacity int) []byte {
	return mcache.Malloc(0, capacity)
}

// segFree returns a segment's backing array to the pool. Called once an
// owned segment is released (never for AddReference/AddFile segments,
// whose storage the pool did not provide).
func segFree(buf []byte) {
	if buf == nil {
		return
	}
	mcache.Free(buf)
}
