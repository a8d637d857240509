package evbuffer

// maxIovecs bounds how many chain segments a single readv/writev call
// will span, mirroring IOV_MAX on most platforms and the kernel
// original's own niovs sanity cap (vm.Useriovec_t.Iov_init).
const maxIovecs = 1024

// writevRegions builds the [][]byte describing up to n bytes of live
// data starting at the head of the chain, for a single writev call.
// Caller holds b.Lock().
func (b *Buffer) writevRegions(n int) ([][]byte, error) {
	var regions [][]byte
	remaining := n
	for s := b.head; s != nil && remaining > 0; s = s.next {
		if s.flags.has(flagFile) {
			break // file segments are handled by sendfile/splice, not writev
		}
		take := min(s.off, remaining)
		if take == 0 {
			continue
		}
		regions = append(regions, s.buf[s.misalign:s.misalign+take])
		remaining -= take
		if len(regions) >= maxIovecs {
			break
		}
	}
	if len(regions) == 0 {
		return nil, wrap(ErrBadArgument, "writevRegions: nothing to write")
	}
	return regions, nil
}

// readvRegions adapts the []IOVec returned by ReserveSpace into the
// [][]byte shape a single readv call fills directly.
func readvRegions(vecs []IOVec) [][]byte {
	out := make([][]byte, 0, len(vecs))
	for _, v := range vecs {
		if len(v.Base) > 0 {
			out = append(out, v.Base)
		}
	}
	return out
}
