package evbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveCommitRoundTrip(t *testing.T) {
	b := New()
	vecs, err := b.ReserveSpace(10)
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	copy(vecs[0].Base, []byte("0123456789"))

	require.NoError(t, b.CommitSpace(10))
	assert.Equal(t, 10, b.Len())

	out := make([]byte, 10)
	_, _ = b.Copyout(out)
	assert.Equal(t, "0123456789", string(out))
}

func TestReserveSameSizeReturnsSameRegion(t *testing.T) {
	b := New()
	first, err := b.ReserveSpace(10)
	require.NoError(t, err)

	second, err := b.ReserveSpace(10)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Same(t, &first[i].Base[0], &second[i].Base[0])
	}
}

func TestReserveDifferentSizeInvalidatesPriorReservation(t *testing.T) {
	b := New()
	_, err := b.ReserveSpace(10)
	require.NoError(t, err)

	vecs, err := b.ReserveSpace(5)
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	copy(vecs[0].Base, []byte("hello"))

	require.NoError(t, b.CommitSpace(5))
	assert.Equal(t, 5, b.Len())
}

func TestCommitPartialLeavesRestAsTailroom(t *testing.T) {
	b := New()
	vecs, err := b.ReserveSpace(20)
	require.NoError(t, err)
	copy(vecs[0].Base, []byte("hello"))

	require.NoError(t, b.CommitSpace(5))
	assert.Equal(t, 5, b.Len())

	// A fresh reservation is now possible again.
	_, err = b.ReserveSpace(4)
	assert.NoError(t, err)
}

func TestReservedSegmentSurvivesPopHeadIfEmpty(t *testing.T) {
	b := New()
	_, err := b.ReserveSpace(10)
	require.NoError(t, err)
	require.NotNil(t, b.head)
	assert.Equal(t, 0, b.head.off)

	// The reserved segment has off == 0 and would ordinarily be popped
	// as an empty head; it must not be, since its bytes are spoken for.
	b.Lock()
	b.popHeadIfEmpty()
	b.Unlock()
	assert.NotNil(t, b.head)
}
