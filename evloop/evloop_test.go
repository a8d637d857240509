package evloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduleCoalescesSameKey(t *testing.T) {
	l := New()
	calls := 0
	l.Schedule("k", func() { calls++ })
	l.Schedule("k", func() { calls++ })
	l.Schedule("k", func() { calls++ })

	n := l.RunOnce()
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls, "only the last scheduled fn for a key should run, exactly once")
}

func TestScheduleKeepsDistinctKeysSeparate(t *testing.T) {
	l := New()
	order := []string{}
	l.Schedule("a", func() { order = append(order, "a") })
	l.Schedule("b", func() { order = append(order, "b") })

	n := l.RunOnce()
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRunOnceIsIdempotentWhenNothingPending(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.RunOnce())
}

func TestScheduleAfterRunOnceStartsFreshRound(t *testing.T) {
	l := New()
	calls := 0
	l.Schedule("k", func() { calls++ })
	l.RunOnce()
	l.Schedule("k", func() { calls++ })
	l.RunOnce()
	assert.Equal(t, 2, calls)
}
