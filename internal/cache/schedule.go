package cache

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"GeoAttend/internal/attendance"
	"GeoAttend/pkg/logger"
)

// 课程安排快照两级缓存：进程内 go-cache + Redis。
// 课程安排创建后不可修改，地点修改时由服务层按 id 失效。
const (
	schedulePrefix = "schedule"
	// 本地缓存无法跨实例失效，TTL 保持较短
	localScheduleTTL = 1 * time.Minute
)

// missingSchedule 本地缓存中表示“确认不存在”
type missingSchedule struct{}

type ScheduleCache struct {
	local   *gocache.Cache
	remote  *ProtectedCache
	breaker *CircuitBreaker
}

// NewScheduleCache remote 为 false 时只使用进程内缓存
func NewScheduleCache(remoteTTL time.Duration, remote bool) *ScheduleCache {
	localTTL := localScheduleTTL
	if remoteTTL > 0 && remoteTTL < localTTL {
		localTTL = remoteTTL
	}

	sc := &ScheduleCache{
		local:   gocache.New(localTTL, 2*localTTL),
		breaker: RedisBreaker,
	}
	if remote {
		sc.remote = NewProtectedCache(schedulePrefix, remoteTTL)
	}
	return sc
}

func scheduleKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Get 返回 (schedule, hit)。hit 且 schedule 为 nil 表示已确认不存在
func (c *ScheduleCache) Get(ctx context.Context, id int64) (*attendance.Schedule, bool) {
	key := scheduleKey(id)

	if v, ok := c.local.Get(key); ok {
		switch s := v.(type) {
		case missingSchedule:
			return nil, true
		case attendance.Schedule:
			return &s, true
		}
	}

	if c.remote == nil {
		return nil, false
	}

	var (
		snapshot attendance.Schedule
		hit      bool
		empty    bool
	)
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		hit, empty, err = c.remote.Get(ctx, key, &snapshot)
		return err
	})
	if err != nil {
		logger.Logger.Debug("Schedule cache lookup failed, falling back to database",
			zap.Int64("schedule_id", id),
			zap.Error(err),
		)
		return nil, false
	}
	if !hit {
		return nil, false
	}

	if empty {
		c.local.SetDefault(key, missingSchedule{})
		return nil, true
	}
	c.local.SetDefault(key, snapshot)
	return &snapshot, true
}

// Set schedule 为 nil 时缓存“不存在”
func (c *ScheduleCache) Set(ctx context.Context, id int64, schedule *attendance.Schedule) {
	key := scheduleKey(id)

	if schedule == nil {
		c.local.SetDefault(key, missingSchedule{})
	} else {
		c.local.SetDefault(key, *schedule)
	}

	if c.remote == nil {
		return
	}

	var value interface{}
	if schedule != nil {
		value = schedule
	}
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		return c.remote.Set(ctx, key, value)
	})
	if err != nil {
		logger.Logger.Debug("Failed to write schedule cache", zap.Int64("schedule_id", id), zap.Error(err))
	}
}

// Invalidate 删除指定课程安排的缓存
func (c *ScheduleCache) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = scheduleKey(id)
		c.local.Delete(keys[i])
	}

	if c.remote == nil {
		return
	}
	if err := c.remote.Delete(ctx, keys...); err != nil {
		logger.Logger.Warn("Failed to invalidate schedule cache", zap.Int64s("schedule_ids", ids), zap.Error(err))
	}
}
