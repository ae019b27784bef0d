package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/model"
	"GeoAttend/internal/repository"
	"GeoAttend/pkg/geo"
)

var wib = time.FixedZone("WIB", 7*3600)

// fakeStore 内存版 attendance.Store，按 retryable 策略约束
type fakeStore struct {
	mu        sync.Mutex
	schedules map[int64]*attendance.Schedule
	records   []*attendance.Record
	finds     int
}

func newFakeStore(schedules ...*attendance.Schedule) *fakeStore {
	s := &fakeStore{schedules: map[int64]*attendance.Schedule{}}
	for _, sc := range schedules {
		s.schedules[sc.ID] = sc
	}
	return s
}

func (s *fakeStore) FindSchedule(_ context.Context, id int64) (*attendance.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	sc, ok := s.schedules[id]
	if !ok {
		return nil, attendance.ErrScheduleNotFound
	}
	copied := *sc
	return &copied, nil
}

func (s *fakeStore) FindExistingAttendance(_ context.Context, userID, scheduleID int64, statuses ...attendance.Status) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.UserID != userID || r.ScheduleID != scheduleID {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				return r, nil
			}
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertAttendance(_ context.Context, r *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.records) + 1)
	r.CreatedAt = time.Date(2025, 12, 30, 8, 30, 0, 0, wib)
	s.records = append(s.records, r)
	return nil
}

func testSchedule() *attendance.Schedule {
	return &attendance.Schedule{
		ID:           1,
		ClassID:      7,
		LocationID:   3,
		Center:       geo.Point{Latitude: -6.2, Longitude: 106.816666},
		RadiusMeters: 100,
		StartTime:    time.Date(2025, 12, 30, 8, 0, 0, 0, wib),
		EndTime:      time.Date(2025, 12, 30, 10, 0, 0, 0, wib),
	}
}

type MockReader struct {
	mock.Mock
}

func (m *MockReader) History(ctx context.Context, userID int64, page, perPage int) ([]repository.HistoryRow, int64, error) {
	args := m.Called(ctx, userID, page, perPage)
	rows, _ := args.Get(0).([]repository.HistoryRow)
	return rows, args.Get(1).(int64), args.Error(2)
}

func (m *MockReader) Report(ctx context.Context, filter attendance.ReportFilter) ([]repository.ReportRow, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]repository.ReportRow)
	return rows, args.Error(1)
}

func (m *MockReader) CountBySchedule(ctx context.Context, scheduleID int64) (map[string]int64, error) {
	args := m.Called(ctx, scheduleID)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

type MockTally struct {
	mock.Mock
}

func (m *MockTally) Get(ctx context.Context, scheduleID int64) (map[string]int64, error) {
	args := m.Called(ctx, scheduleID)
	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}

func (m *MockTally) Invalidate(ctx context.Context, scheduleID int64) error {
	return m.Called(ctx, scheduleID).Error(0)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 99
	}
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserStore) GetByIdentityNumber(ctx context.Context, identityNumber string) (*model.User, error) {
	args := m.Called(ctx, identityNumber)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type MockClasses struct {
	mock.Mock
}

func (m *MockClasses) ClassesOfUser(ctx context.Context, userID int64) ([]model.ClassRoom, error) {
	args := m.Called(ctx, userID)
	classes, _ := args.Get(0).([]model.ClassRoom)
	return classes, args.Error(1)
}

func (m *MockClasses) ClassIDsOfUser(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}
