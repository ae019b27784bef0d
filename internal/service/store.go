package service

import (
	"context"
	stderrors "errors"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/cache"
)

// cachedStore 在 attendance.Store 外包一层课程安排快照缓存，其余方法直通
type cachedStore struct {
	attendance.Store
	schedules *cache.ScheduleCache
}

func NewCachedStore(store attendance.Store, schedules *cache.ScheduleCache) attendance.Store {
	if schedules == nil {
		return store
	}
	return &cachedStore{Store: store, schedules: schedules}
}

func (s *cachedStore) FindSchedule(ctx context.Context, scheduleID int64) (*attendance.Schedule, error) {
	if sc, hit := s.schedules.Get(ctx, scheduleID); hit {
		if sc == nil {
			return nil, attendance.ErrScheduleNotFound
		}
		return sc, nil
	}

	sc, err := s.Store.FindSchedule(ctx, scheduleID)
	switch {
	case stderrors.Is(err, attendance.ErrScheduleNotFound):
		s.schedules.Set(ctx, scheduleID, nil)
	case err == nil:
		s.schedules.Set(ctx, scheduleID, sc)
	}
	return sc, err
}
