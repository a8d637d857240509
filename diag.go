package evbuffer

import (
	"hash/fnv"
	"io"
	"runtime"
	"sync"

	"github.com/google/pprof/profile"
	"github.com/google/uuid"
)

// SegmentDescriptor is a read-only, point-in-time snapshot of one
// segment in a buffer's chain, grounded on biscuit's Stat_t (a packed
// struct exposing getters over otherwise-private fields) adapted from
// filesystem metadata to chain-link metadata.
type SegmentDescriptor struct {
	ID        uuid.UUID
	Capacity  int
	Misalign  int
	Live      int
	Pinned    bool
	Immutable bool
	File      bool
}

// Segments returns a snapshot of every segment currently in the chain,
// head to tail. Intended for tests and operator-facing debugging of
// fragmentation; not part of the hot path.
func (b *Buffer) Segments() []SegmentDescriptor {
	b.Lock()
	defer b.Unlock()

	var out []SegmentDescriptor
	for s := b.head; s != nil; s = s.next {
		out = append(out, SegmentDescriptor{
			ID:        s.id(),
			Capacity:  s.capacity(),
			Misalign:  s.misalign,
			Live:      s.off,
			Pinned:    s.flags.has(flagPinned),
			Immutable: s.flags.has(flagImmutable),
			File:      s.flags.has(flagFile),
		})
	}
	return out
}

// Profile writes a pprof-format sample profile of the current segment
// size distribution to w, so a long-running process's buffer
// fragmentation can be inspected with standard `go tool pprof`.
func (b *Buffer) Profile(w io.Writer) error {
	descs := b.Segments()

	sizeType := &profile.ValueType{Type: "bytes", Unit: "bytes"}
	p := &profile.Profile{
		SampleType: []*profile.ValueType{sizeType},
		PeriodType: sizeType,
		Period:     1,
	}
	loc := &profile.Location{ID: 1}
	fn := &profile.Function{ID: 1, Name: "evbuffer.segment"}
	loc.Line = []profile.Line{{Function: fn}}
	p.Function = []*profile.Function{fn}
	p.Location = []*profile.Location{loc}

	for _, d := range descs {
		label := "owned"
		switch {
		case d.File:
			label = "file"
		case d.Pinned:
			label = "pinned"
		}
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{int64(d.Capacity)},
			Label:    map[string][]string{"kind": {label}, "id": {d.ID.String()}},
		})
	}
	return p.Write(w)
}

// distinctWarner deduplicates repeated diagnostic log lines by call
// site, grounded on biscuit's caller.Distinct_caller_t (a mutex-guarded
// set of seen program-counter hashes used to print each kernel warning
// path exactly once). once reports true only the first time it is
// reached from a given call site. Each Buffer holds one, but no code
// path in this package currently logs through it.
type distinctWarner struct {
	mu  sync.Mutex
	did map[uintptr]bool
}

func (d *distinctWarner) once(skip int) bool {
	var pc [1]uintptr
	n := runtime.Callers(skip+2, pc[:])
	if n == 0 {
		return true
	}
	h := fnvHash(pc[0])

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.did == nil {
		d.did = make(map[uintptr]bool)
	}
	if d.did[h] {
		return false
	}
	d.did[h] = true
	return true
}

func fnvHash(pc uintptr) uintptr {
	h := fnv.New64a()
	var b [8]byte
	for i := range b {
		b[i] = byte(pc >> (8 * i))
	}
	_, _ = h.Write(b[:])
	return uintptr(h.Sum64())
}
