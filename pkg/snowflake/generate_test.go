package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID(t *testing.T) {
	_, err := NextID()
	assert.ErrorIs(t, err, errGeneratorUninitial)

	require.NoError(t, Init(1, 1))

	seen := make(map[int64]struct{}, 1000)
	var prev int64
	for i := 0; i < 1000; i++ {
		id, err := NextID()
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		seen[id] = struct{}{}
		prev = id
	}
	assert.Len(t, seen, 1000)
}
