package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"GeoAttend/storage/redis"
)

// 分布式锁，SetNX 实现，用于收窄同一 (user, schedule) 的并发提交窗口。
// 值为本次持有者的 token，释放时比对，避免超时后删掉别人的锁
const (
	lockPrefix = "lock"
)

var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(key string) string {
	return redis.Key(lockPrefix, key)
}

// TryLock 成功时返回 token，Unlock 需要带上它
func TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := redis.Client().SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock 只删除 token 匹配的锁；锁已过期或被他人持有时什么也不做
func Unlock(ctx context.Context, key, token string) error {
	return unlockScript.Run(ctx, redis.Client(), []string{lockKey(key)}, token).Err()
}

// SubmitLocker 把包级锁函数适配为 attendance.Locker
type SubmitLocker struct{}

func (SubmitLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	return TryLock(ctx, key, ttl)
}

func (SubmitLocker) Unlock(ctx context.Context, key, token string) error {
	return Unlock(ctx, key, token)
}
