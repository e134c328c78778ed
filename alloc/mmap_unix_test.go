//go:build linux || darwin

package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmapRoundTrip(t *testing.T) {
	m := NewMmap[float64]()

	block, err := m.Allocate(1 << 16)
	require.NoError(t, err)
	require.Len(t, block, 1<<16)
	for i := range block {
		assert.Zero(t, block[i])
		block[i] = float64(i) * 0.5
	}
	assert.Equal(t, 100.0, block[200])

	grown, err := m.Reallocate(block, 1<<17)
	require.NoError(t, err)
	assert.Equal(t, 100.0, grown[200])
	assert.Zero(t, grown[1<<16])

	m.Deallocate(grown)
}

func TestMmapWithTracking(t *testing.T) {
	tr := NewTracking[uint32](NewMmap[uint32]())
	block, err := tr.Allocate(1024)
	require.NoError(t, err)
	block[1023] = 9

	tr.Deallocate(block)
	assert.Zero(t, tr.Stats().Live)
	assert.Panics(t, func() { tr.Deallocate(block) })
}
