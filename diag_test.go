package evbuffer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentsSnapshotsChain(t *testing.T) {
	b := New()
	_, _ = b.Add([]byte("seed"))
	_, _ = b.Add(bytes.Repeat([]byte("a"), minSegmentSize))

	descs := b.Segments()
	require.Len(t, descs, 2)
	assert.False(t, descs[0].Pinned)
	assert.False(t, descs[0].File)
	assert.NotEqual(t, descs[0].ID, descs[1].ID)
}

func TestSegmentsMarksPinnedAndImmutable(t *testing.T) {
	b := New()
	require.NoError(t, b.AddReference([]byte("ref"), nil))

	descs := b.Segments()
	require.Len(t, descs, 1)
	assert.True(t, descs[0].Pinned)
	assert.True(t, descs[0].Immutable)
}

func TestProfileWritesValidPprofStream(t *testing.T) {
	b := New()
	_, _ = b.Add([]byte("some bytes"))

	var buf bytes.Buffer
	require.NoError(t, b.Profile(&buf))
	assert.NotEmpty(t, buf.Bytes())
}

func TestDistinctWarnerFiresOnceForSameCallsite(t *testing.T) {
	var w distinctWarner
	seen := func() bool { return w.once(0) }
	assert.True(t, seen())
	assert.False(t, seen())
}
