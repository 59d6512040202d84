package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}

	t1 := gen.Generate()
	t2 := gen.Generate()

	assert.NotEqual(t, t1, t2)

	parsed, err := uuid.Parse(t1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	// UUIDv7 tokens sort by creation time.
	assert.Less(t, t1, t2)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("run-1", "run-2")

	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
