package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimalPoolSize_Bounds(t *testing.T) {
	n := OptimalPoolSize()
	assert.GreaterOrEqual(t, n, 4)
	assert.LessOrEqual(t, n, 32)
}

func TestPoolSizeWithOverride(t *testing.T) {
	assert.Equal(t, 7, PoolSizeWithOverride(7))
	assert.Equal(t, OptimalPoolSize(), PoolSizeWithOverride(0))
	assert.Equal(t, OptimalPoolSize(), PoolSizeWithOverride(-1))
}
