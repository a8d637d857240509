package evbuffer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundupPow2(t *testing.T) {
	assert.Equal(t, minSegmentSize, roundupPow2(1))
	assert.Equal(t, minSegmentSize, roundupPow2(minSegmentSize))
	assert.Equal(t, 512, roundupPow2(minSegmentSize+1))
	assert.Equal(t, 1024, roundupPow2(1000))
}

func TestSegmentTailroomHeadroom(t *testing.T) {
	s := newOwnedSegment(10)
	require.Equal(t, minSegmentSize, s.capacity())
	assert.Equal(t, minSegmentSize, s.tailroom())
	assert.Equal(t, 0, s.headroom())

	s.off = 10
	assert.Equal(t, minSegmentSize-10, s.tailroom())
}

func TestSegmentReleaseRunsCleanupOnce(t *testing.T) {
	calls := 0
	s := &segment{buf: []byte("hi"), off: 2, flags: flagPinned, refs: 1, cleanup: func() { calls++ }}
	s.release()
	assert.Equal(t, 1, calls)
	s.cleanup = func() { calls++ } // release already nilled it out; this has no effect
	assert.Equal(t, 1, calls)
}

func TestSegmentReleaseRespectsRefcount(t *testing.T) {
	freed := false
	s := &segment{buf: []byte("hi"), off: 2, refs: 2, cleanup: func() { freed = true }}
	s.release()
	assert.False(t, freed)
	s.release()
	assert.True(t, freed)
}

func TestSegmentIDIsStableAndLazy(t *testing.T) {
	s := newOwnedSegment(10)
	assert.Equal(t, uuid.Nil, s.uid)
	id1 := s.id()
	id2 := s.id()
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, uuid.Nil, id1)
}
