package evbuffer

import (
	"context"

	"golang.org/x/sys/unix"
)

// defaultReadSize is how much tailroom ReadFromFD reserves when howmuch
// is given as -1, mirroring the original evbuffer's EVBUFFER_MAX_READ
// default guess for a single socket read.
const defaultReadSize = 4096

// ReadFromFD performs a single readv(2) from fd into the buffer's tail,
// reserving howmuch bytes of space first (or defaultReadSize if howmuch
// is negative). It returns the number of bytes read; 0 with a nil error
// indicates EOF on fd, matching read(2) semantics.
func (b *Buffer) ReadFromFD(fd int, howmuch int) (int, error) {
	if howmuch < 0 {
		howmuch = defaultReadSize
	}
	vecs, err := b.ReserveSpace(howmuch)
	if err != nil {
		return 0, err
	}
	n, err := unix.Readv(fd, readvRegions(vecs))
	if err != nil {
		_ = b.CommitSpace(0)
		return 0, wrap(ErrIO, "ReadFromFD: readv failed")
	}
	if cerr := b.CommitSpace(n); cerr != nil {
		return 0, cerr
	}
	return n, nil
}

// ReadLimitedContext is ReadFromFD with a context check up front, so a
// caller looping reads in a cancellable goroutine doesn't start another
// syscall after cancellation. It cannot interrupt a readv already in
// flight; combine with a socket deadline for that.
func (b *Buffer) ReadLimitedContext(ctx context.Context, fd int, howmuch int) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	return b.ReadFromFD(fd, howmuch)
}

// WriteToFD writes up to howmuch bytes (or the whole buffer, if howmuch
// is negative) from the front of the buffer to fd via a single writev,
// draining exactly what was written. If the head segment is a file
// segment, the call is handed to WriteFileToFD instead; a file segment
// further along the chain ends the writev batch before it.
func (b *Buffer) WriteToFD(fd int, howmuch int) (int, error) {
	b.Lock()
	if howmuch < 0 || howmuch > b.totalLen {
		howmuch = b.totalLen
	}
	if b.head != nil && b.head.flags.has(flagFile) {
		b.Unlock()
		return b.WriteFileToFD(fd)
	}
	regions, err := b.writevRegions(howmuch)
	b.Unlock()
	if err != nil {
		return 0, err
	}
	n, err := unix.Writev(fd, regions)
	if err != nil {
		return 0, wrap(ErrIO, "WriteToFD: writev failed")
	}
	if _, derr := b.Drain(n); derr != nil {
		return n, derr
	}
	return n, nil
}

// WriteFileToFD emits the buffer's head file segment to fd with
// sendfile(2), falling back to a pread+write copy if dst does not
// support sendfile (e.g. dst is not a socket). Only sensible when
// Segments()[0].File is true; returns ErrUnsupportedSegmentKind
// otherwise.
func (b *Buffer) WriteFileToFD(dst int) (int, error) {
	b.Lock()
	s := b.head
	if s == nil || !s.flags.has(flagFile) {
		b.Unlock()
		return 0, wrap(ErrUnsupportedSegmentKind, "WriteFileToFD: head segment is not a file segment")
	}
	srcFd, off, length := s.fd, s.fileOff, s.fileLen
	b.Unlock()

	n, serr := trySendfile(dst, srcFd, off, length)
	if serr == nil {
		_, err := b.Drain(n)
		return n, err
	}

	n, cerr := trySplice(dst, srcFd, off, length)
	if cerr == nil {
		_, err := b.Drain(n)
		return n, err
	}

	n, err := copyViaPread(dst, srcFd, off, length)
	if err != nil {
		_, _ = b.Drain(n)
		return n, wrap(ErrIO, "WriteFileToFD: fallback copy failed")
	}
	_, derr := b.Drain(n)
	return n, derr
}

func trySendfile(dst, src int, off, length int64) (int, error) {
	o := off
	n, err := unix.Sendfile(dst, src, &o, int(length))
	if err != nil {
		return 0, err
	}
	return n, nil
}

func trySplice(dst, src int, off, length int64) (int, error) {
	o := off
	n, err := unix.Splice(src, &o, dst, nil, int(length), 0)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func copyViaPread(dst, src int, off, length int64) (int, error) {
	buf := make([]byte, min(length, int64(defaultReadSize*16)))
	total := 0
	remaining := length
	for remaining > 0 {
		want := buf
		if int64(len(want)) > remaining {
			want = want[:remaining]
		}
		n, err := unix.Pread(src, want, off+int64(total))
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		if _, err := unix.Write(dst, want[:n]); err != nil {
			return total, err
		}
		total += n
		remaining -= int64(n)
	}
	return total, nil
}
