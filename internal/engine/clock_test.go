package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockStrictlyIncreasing(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
	assert.Equal(t, int64(3), c.Current())
}

func TestClocksAreIndependent(t *testing.T) {
	a := NewClock()
	b := NewClock()

	a.Next()
	a.Next()

	assert.Equal(t, int64(2), a.Current())
	assert.Equal(t, int64(0), b.Current())
}
