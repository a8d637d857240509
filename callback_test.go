package evbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackFiresImmediatelyWithDelta(t *testing.T) {
	b := New()
	var got CallbackDelta
	fires := 0
	b.AddCallback(func(buf *Buffer, d CallbackDelta, arg any) {
		fires++
		got = d
	}, nil)

	_, err := b.Add([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 1, fires)
	assert.Equal(t, CallbackDelta{OrigSize: 0, NAdded: 5, NDeleted: 0}, got)
}

func TestCallbackSuspendAccumulatesThenFiresOnUnsuspend(t *testing.T) {
	b := New()
	fires := 0
	var got CallbackDelta
	h := b.AddCallback(func(buf *Buffer, d CallbackDelta, arg any) {
		fires++
		got = d
	}, nil)

	b.CbSuspend(h)
	_, _ = b.Add([]byte("ab"))
	_, _ = b.Add([]byte("cd"))
	assert.Equal(t, 0, fires, "suspended callback must not fire")

	b.CbUnsuspend(h)
	assert.Equal(t, 1, fires)
	assert.Equal(t, 4, got.NAdded)
}

func TestCallbackRemoveStopsFutureFires(t *testing.T) {
	b := New()
	fires := 0
	h := b.AddCallback(func(buf *Buffer, d CallbackDelta, arg any) { fires++ }, nil)
	_, _ = b.Add([]byte("x"))
	assert.Equal(t, 1, fires)

	assert.True(t, b.RemoveCallback(h))
	_, _ = b.Add([]byte("y"))
	assert.Equal(t, 1, fires)
}

func TestCallbackDisabledDoesNotAccumulate(t *testing.T) {
	b := New()
	fires := 0
	h := b.AddCallback(func(buf *Buffer, d CallbackDelta, arg any) { fires++ }, nil)
	b.SetCallbackEnabled(h, false)
	_, _ = b.Add([]byte("x"))
	assert.Equal(t, 0, fires)

	b.SetCallbackEnabled(h, true)
	_, _ = b.Add([]byte("y"))
	assert.Equal(t, 1, fires, "re-enabling does not retroactively fire for changes while disabled")
}

func TestDeferCallbacksCoalescesThroughEventLoop(t *testing.T) {
	b := New()
	loop := &fakeLoop{}
	b.DeferCallbacks(loop)

	fires := 0
	var got CallbackDelta
	b.AddCallback(func(buf *Buffer, d CallbackDelta, arg any) {
		fires++
		got = d
	}, nil)

	_, _ = b.Add([]byte("ab"))
	_, _ = b.Add([]byte("cd"))
	assert.Equal(t, 0, fires, "deferred callback must not fire inline")
	require.Len(t, loop.scheduled, 1, "repeated schedules for the same handle must coalesce")

	loop.runAll()
	assert.Equal(t, 1, fires)
	assert.Equal(t, 4, got.NAdded)
}

// fakeLoop is a minimal EventLoop double that records scheduled work
// instead of running it immediately, so tests can assert coalescing
// before choosing when to flush.
type fakeLoop struct {
	scheduled map[any]func()
}

func (l *fakeLoop) Schedule(key any, fn func()) {
	if l.scheduled == nil {
		l.scheduled = make(map[any]func())
	}
	l.scheduled[key] = fn
}

func (l *fakeLoop) runAll() {
	for _, fn := range l.scheduled {
		fn()
	}
	l.scheduled = nil
}
