package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	pkgerrors "GeoAttend/pkg/errors"
)

type MockScheduleStore struct {
	mock.Mock
}

func (m *MockScheduleStore) Create(ctx context.Context, schedule *model.Schedule) error {
	args := m.Called(ctx, schedule)
	if args.Error(0) == nil {
		schedule.ID = 21
	}
	return args.Error(0)
}

func (m *MockScheduleStore) GetByID(ctx context.Context, id int64) (*model.Schedule, error) {
	args := m.Called(ctx, id)
	sc, _ := args.Get(0).(*model.Schedule)
	return sc, args.Error(1)
}

func (m *MockScheduleStore) List(ctx context.Context, from, to time.Time, page, perPage int) ([]model.Schedule, int64, error) {
	args := m.Called(ctx, from, to, page, perPage)
	list, _ := args.Get(0).([]model.Schedule)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockScheduleStore) StartingBetween(ctx context.Context, from, to time.Time, classIDs []int64) ([]model.Schedule, error) {
	args := m.Called(ctx, from, to, classIDs)
	list, _ := args.Get(0).([]model.Schedule)
	return list, args.Error(1)
}

type existsSet map[int64]bool

func (e existsSet) Exists(_ context.Context, id int64) (bool, error) {
	return e[id], nil
}

func modelSchedule(id int64, start time.Time) model.Schedule {
	classID := int64(7)
	sc := model.Schedule{
		LocationID: 3,
		ClassID:    &classID,
		StartTime:  start,
		EndTime:    start.Add(2 * time.Hour),
		Location:   &model.Location{Name: "Gedung A", Latitude: -6.2, Longitude: 106.816666, RadiusMeters: 100},
		Class:      &model.ClassRoom{Name: "TI-3A"},
	}
	sc.ID = id
	return sc
}

func TestTodaySchedules(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 12, 30, 9, 0, 0, 0, wib)
	dayStart := time.Date(2025, 12, 30, 0, 0, 0, 0, wib)
	dayEnd := dayStart.AddDate(0, 0, 1)

	morning := modelSchedule(1, time.Date(2025, 12, 30, 8, 0, 0, 0, wib))
	afternoon := modelSchedule(2, time.Date(2025, 12, 30, 13, 0, 0, 0, wib))

	t.Run("all schedules when enrollment is not enforced", func(t *testing.T) {
		store := new(MockScheduleStore)
		store.On("StartingBetween", ctx, dayStart, dayEnd, []int64(nil)).
			Return([]model.Schedule{morning, afternoon}, nil)

		svc := NewScheduleService(ScheduleDeps{Schedules: store, Location: wib, Now: func() time.Time { return now }})
		items, err := svc.TodaySchedules(ctx, 10)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.True(t, items[0].IsActive)
		assert.False(t, items[1].IsActive)
		assert.Equal(t, "Gedung A", items[0].LocationName)
		assert.Equal(t, "7", items[0].ClassID)
	})

	t.Run("restricted to user classes when enforced", func(t *testing.T) {
		store, classes := new(MockScheduleStore), new(MockClasses)
		classes.On("ClassIDsOfUser", ctx, int64(10)).Return([]int64{7}, nil)
		store.On("StartingBetween", ctx, dayStart, dayEnd, []int64{7}).Return([]model.Schedule{morning}, nil)

		svc := NewScheduleService(ScheduleDeps{
			Schedules:         store,
			Memberships:       classes,
			RequireEnrollment: true,
			Location:          wib,
			Now:               func() time.Time { return now },
		})
		items, err := svc.TodaySchedules(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, items, 1)
		store.AssertExpectations(t)
	})

	t.Run("tolerance widens the active window", func(t *testing.T) {
		early := time.Date(2025, 12, 30, 12, 55, 0, 0, wib)
		store := new(MockScheduleStore)
		store.On("StartingBetween", ctx, dayStart, dayEnd, []int64(nil)).Return([]model.Schedule{afternoon}, nil)

		svc := NewScheduleService(ScheduleDeps{
			Schedules: store,
			Window:    attendance.Window{Tolerance: 5 * time.Minute},
			Location:  wib,
			Now:       func() time.Time { return early },
		})
		items, err := svc.TodaySchedules(ctx, 10)
		require.NoError(t, err)
		assert.True(t, items[0].IsActive)
	})
}

func TestCreateSchedule(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 12, 30, 8, 0, 0, 0, wib)

	newSvc := func(store *MockScheduleStore) *ScheduleService {
		return NewScheduleService(ScheduleDeps{
			Schedules: store,
			Locations: existsSet{3: true},
			Courses:   existsSet{5: true},
			Classes:   existsSet{7: true},
			Location:  wib,
		})
	}

	t.Run("creates", func(t *testing.T) {
		store := new(MockScheduleStore)
		created := modelSchedule(21, start)
		store.On("Create", ctx, mock.AnythingOfType("*model.Schedule")).Return(nil)
		store.On("GetByID", ctx, int64(21)).Return(&created, nil)

		classID := int64(7)
		item, err := newSvc(store).Create(ctx, dto.CreateScheduleRequest{
			StartTime: start, EndTime: start.Add(2 * time.Hour), LocationID: 3, ClassID: &classID,
		})
		require.NoError(t, err)
		assert.Equal(t, "21", item.ID)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := newSvc(new(MockScheduleStore)).Create(ctx, dto.CreateScheduleRequest{
			StartTime: start, EndTime: start, LocationID: 3,
		})
		assert.True(t, stderrors.Is(err, pkgerrors.ScheduleInvalid))
	})

	t.Run("missing references", func(t *testing.T) {
		svc := newSvc(new(MockScheduleStore))
		end := start.Add(time.Hour)

		_, err := svc.Create(ctx, dto.CreateScheduleRequest{StartTime: start, EndTime: end, LocationID: 4})
		assert.True(t, stderrors.Is(err, pkgerrors.LocationNotFound))

		course := int64(6)
		_, err = svc.Create(ctx, dto.CreateScheduleRequest{StartTime: start, EndTime: end, LocationID: 3, CourseID: &course})
		assert.True(t, stderrors.Is(err, pkgerrors.CourseNotFound))

		class := int64(8)
		_, err = svc.Create(ctx, dto.CreateScheduleRequest{StartTime: start, EndTime: end, LocationID: 3, ClassID: &class})
		assert.True(t, stderrors.Is(err, pkgerrors.ClassNotFound))
	})
}

func TestListSchedulesInvalidDate(t *testing.T) {
	svc := NewScheduleService(ScheduleDeps{Schedules: new(MockScheduleStore), Location: wib})
	_, err := svc.List(context.Background(), dto.ScheduleQuery{Date: "30-12-2025"})
	assert.True(t, stderrors.Is(err, pkgerrors.InvalidInput))
}
