package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyKey(t *testing.T) {
	assert.Equal(t, "geo:attendance:tally:42", tallyKey(42))
}

func TestTallySetOverwrites(t *testing.T) {
	f := useFakeRedis(t)
	ctx := context.Background()

	require.NoError(t, SetTally(ctx, 3, map[string]int64{"present": 1}))
	require.NoError(t, SetTally(ctx, 3, map[string]int64{"present": 4, "rejected": 2}))

	counts, err := GetTally(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"present": 4, "rejected": 2}, counts)
	assert.Equal(t, "600", f.ttl[tallyKey(3)])
}

func TestTallyZeroCountsAreCached(t *testing.T) {
	useFakeRedis(t)
	ctx := context.Background()

	require.NoError(t, SetTally(ctx, 5, map[string]int64{}))

	counts, err := GetTally(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"present": 0, "rejected": 0}, counts)
}

func TestTallyInvalidate(t *testing.T) {
	useFakeRedis(t)
	ctx := context.Background()
	store := TallyStore{}

	require.NoError(t, store.Set(ctx, 3, map[string]int64{"present": 1}))
	require.NoError(t, store.Invalidate(ctx, 3))

	counts, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
