package evbuffer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchFindsMatchWithinOneSegment(t *testing.T) {
	b := New()
	_, _ = b.Add([]byte("the quick brown fox"))

	p, ok := b.Search([]byte("quick"))
	require.True(t, ok)
	assert.Equal(t, 4, p.Pos())
}

func TestSearchSpansSegmentBoundary(t *testing.T) {
	b := New()
	_, _ = b.Add(bytes.Repeat([]byte("a"), minSegmentSize-2))
	_, _ = b.Add([]byte("NEEDLE"))

	p, ok := b.Search([]byte("NEEDLE"))
	require.True(t, ok)
	assert.Equal(t, minSegmentSize-2, p.Pos())
}

func TestSearchNotFound(t *testing.T) {
	b := New()
	_, _ = b.Add([]byte("abc"))
	_, ok := b.Search([]byte("xyz"))
	assert.False(t, ok)
}

func TestSearchFromResumes(t *testing.T) {
	b := New()
	_, _ = b.Add([]byte("ababab"))

	first, ok := b.Search([]byte("ab"))
	require.True(t, ok)
	assert.Equal(t, 0, first.Pos())

	resume, err := b.PtrSet(first, 1, SeekAdd)
	require.NoError(t, err)
	second, ok := b.SearchFrom(resume, []byte("ab"))
	require.True(t, ok)
	assert.Equal(t, 2, second.Pos())
}
