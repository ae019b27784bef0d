package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockOwnership(t *testing.T) {
	f := useFakeRedis(t)
	ctx := context.Background()
	key := "attendance:10:1"

	first, ok, err := TryLock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, first)

	_, ok, err = TryLock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// 第一个持有者超时，锁被第二个请求拿到
	delete(f.kv, lockKey(key))
	second, ok, err := TryLock(ctx, key, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, first, second)

	// 迟到的释放不能删掉别人的锁
	require.NoError(t, Unlock(ctx, key, first))
	assert.Equal(t, second, f.kv[lockKey(key)])

	require.NoError(t, Unlock(ctx, key, second))
	assert.NotContains(t, f.kv, lockKey(key))
}

func TestSubmitLocker(t *testing.T) {
	f := useFakeRedis(t)
	ctx := context.Background()

	token, ok, err := SubmitLocker{}.TryLock(ctx, "attendance:1:2", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, SubmitLocker{}.Unlock(ctx, "attendance:1:2", token))
	assert.Empty(t, f.kv)
}
