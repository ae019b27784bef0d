package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// memStore 内存版 Store，唯一约束与数据库迁移创建的索引保持一致
type memStore struct {
	mu        sync.Mutex
	policy    DuplicatePolicy
	schedules map[int64]*Schedule
	records   []*Record
	nextID    int64
	now       func() time.Time
	findErr   error
}

func newMemStore(policy DuplicatePolicy, schedules ...*Schedule) *memStore {
	s := &memStore{
		policy:    policy,
		schedules: make(map[int64]*Schedule),
		now:       time.Now,
	}
	for _, sc := range schedules {
		s.schedules[sc.ID] = sc
	}
	return s
}

func (s *memStore) FindSchedule(_ context.Context, id int64) (*Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	sc, ok := s.schedules[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	copied := *sc
	return &copied, nil
}

func (s *memStore) FindExistingAttendance(_ context.Context, userID, scheduleID int64, statuses ...Status) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.UserID != userID || r.ScheduleID != scheduleID {
			continue
		}
		if len(statuses) == 0 {
			return r, nil
		}
		for _, st := range statuses {
			if r.Status == st {
				return r, nil
			}
		}
	}
	return nil, nil
}

func (s *memStore) InsertAttendance(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.UserID != record.UserID || r.ScheduleID != record.ScheduleID {
			continue
		}
		if s.policy == PolicyStrict {
			return ErrDuplicateAttendance
		}
		if r.Status == StatusPresent && record.Status == StatusPresent {
			return ErrDuplicateAttendance
		}
	}
	s.nextID++
	record.ID = s.nextID
	record.CreatedAt = s.now()
	s.records = append(s.records, record)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// racyStore 模拟并发下重复检查都通过、由唯一约束兜底的情况
type racyStore struct {
	*memStore
}

func (s racyStore) FindExistingAttendance(context.Context, int64, int64, ...Status) (*Record, error) {
	return nil, nil
}

type MockEnrollment struct {
	mock.Mock
}

func (m *MockEnrollment) IsEnrolled(ctx context.Context, userID, classID int64) (bool, error) {
	args := m.Called(ctx, userID, classID)
	return args.Bool(0), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}
