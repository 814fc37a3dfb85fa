package cu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeMeter(t *testing.T) {
	meter := NewComputeMeter(100)
	assert.NoError(t, meter.Consume(60))
	assert.Equal(t, uint64(40), meter.Remaining())
	assert.Equal(t, uint64(60), meter.Used())
	assert.False(t, meter.Exceeded())

	assert.ErrorIs(t, meter.Consume(41), ErrComputeExceeded)
	assert.True(t, meter.Exceeded())
	assert.Equal(t, uint64(0), meter.Remaining())

	// Exhausted meters stay exhausted.
	assert.ErrorIs(t, meter.Consume(0), ErrComputeExceeded)
}
