package evbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapacityGuardAdmit(t *testing.T) {
	var g capacityGuard
	assert.True(t, g.admit(0, 1<<30), "unlimited by default")

	g.setMax(100)
	assert.True(t, g.admit(50, 50))
	assert.False(t, g.admit(50, 51))

	g.setMax(0)
	assert.True(t, g.admit(1<<30, 1<<30), "0 disables the guard again")
}
