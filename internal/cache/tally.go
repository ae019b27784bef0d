package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"GeoAttend/internal/attendance"
	"GeoAttend/storage/redis"
)

// 每个课程安排一个 hash，字段为考勤状态，值为从数据库统计出的绝对计数。
// TTL 限定了并发覆盖写导致的陈旧窗口
const (
	tallyPrefix = "attendance:tally"
	tallyTTL    = 10 * time.Minute
)

func tallyKey(scheduleID int64) string {
	return redis.Key(tallyPrefix, strconv.FormatInt(scheduleID, 10))
}

// tallyFields 两个状态都写入，计数为 0 的课程安排也能命中缓存
func tallyFields(counts map[string]int64) map[string]interface{} {
	return map[string]interface{}{
		string(attendance.StatusPresent):  counts[string(attendance.StatusPresent)],
		string(attendance.StatusRejected): counts[string(attendance.StatusRejected)],
	}
}

// SetTally 用统计结果整体覆盖计数
func SetTally(ctx context.Context, scheduleID int64, counts map[string]int64) error {
	key := tallyKey(scheduleID)

	_, err := redis.Client().TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, tallyFields(counts))
		pipe.Expire(ctx, key, tallyTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set tally: %w", err)
	}
	return nil
}

// InvalidateTally 删除计数，读取方回源数据库直到下一次重算
func InvalidateTally(ctx context.Context, scheduleID int64) error {
	if err := redis.Client().Del(ctx, tallyKey(scheduleID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate tally: %w", err)
	}
	return nil
}

// GetTally 返回状态 -> 计数，没有数据时返回空 map
func GetTally(ctx context.Context, scheduleID int64) (map[string]int64, error) {
	raw, err := redis.Client().HGetAll(ctx, tallyKey(scheduleID)).Result()
	if err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("failed to get tally: %w", err)
	}

	result := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		result[field] = n
	}
	return result, nil
}

// TallyStore 把包级函数适配为消费者与服务层使用的接口
type TallyStore struct{}

func (TallyStore) Set(ctx context.Context, scheduleID int64, counts map[string]int64) error {
	return SetTally(ctx, scheduleID, counts)
}

func (TallyStore) Get(ctx context.Context, scheduleID int64) (map[string]int64, error) {
	return GetTally(ctx, scheduleID)
}

func (TallyStore) Invalidate(ctx context.Context, scheduleID int64) error {
	return InvalidateTally(ctx, scheduleID)
}
