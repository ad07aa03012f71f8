package bfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrioBitmap_SetClearIsSet(t *testing.T) {
	var b prioBitmap
	assert.False(t, b.isSet(5))
	b.set(5)
	assert.True(t, b.isSet(5))
	b.clear(5)
	assert.False(t, b.isSet(5))
}

func TestPrioBitmap_FirstSetFindsLowestAcrossWordBoundary(t *testing.T) {
	var b prioBitmap
	b.set(70) // forces a second word on 64-bit boundaries
	b.set(3)
	assert.Equal(t, 3, b.firstSet(0))
	assert.Equal(t, 70, b.firstSet(4))
}

func TestPrioBitmap_FirstSetReturnsSentinelWhenEmpty(t *testing.T) {
	var b prioBitmap
	assert.Equal(t, PrioLimit, b.firstSet(0))
}
