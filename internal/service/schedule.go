package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/cache"
	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/repository"
	pkgerrors "GeoAttend/pkg/errors"
	"GeoAttend/pkg/geo"
	"GeoAttend/pkg/logger"
)

var scheduleService *ScheduleService

func Schedule() *ScheduleService {
	return scheduleService
}

func SetSchedule(s *ScheduleService) {
	scheduleService = s
}

// ScheduleStore 课程安排持久化
type ScheduleStore interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id int64) (*model.Schedule, error)
	List(ctx context.Context, from, to time.Time, page, perPage int) ([]model.Schedule, int64, error)
	StartingBetween(ctx context.Context, from, to time.Time, classIDs []int64) ([]model.Schedule, error)
}

// ClassIDLister 用户所属班级 id
type ClassIDLister interface {
	ClassIDsOfUser(ctx context.Context, userID int64) ([]int64, error)
}

// existence 按主键判断记录是否存在
type existence interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ScheduleService struct {
	schedules         ScheduleStore
	locations         existence
	courses           existence
	classes           existence
	memberships       ClassIDLister
	cache             *cache.ScheduleCache
	window            attendance.Window
	requireEnrollment bool
	location          *time.Location
	now               func() time.Time
}

// ScheduleDeps Cache 可为 nil
type ScheduleDeps struct {
	Schedules         ScheduleStore
	Locations         existence
	Courses           existence
	Classes           existence
	Memberships       ClassIDLister
	Cache             *cache.ScheduleCache
	Window            attendance.Window
	RequireEnrollment bool
	Location          *time.Location
	Now               func() time.Time
}

func NewScheduleService(deps ScheduleDeps) *ScheduleService {
	s := &ScheduleService{
		schedules:         deps.Schedules,
		locations:         deps.Locations,
		courses:           deps.Courses,
		classes:           deps.Classes,
		memberships:       deps.Memberships,
		cache:             deps.Cache,
		window:            deps.Window,
		requireEnrollment: deps.RequireEnrollment,
		location:          deps.Location,
		now:               deps.Now,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// TodaySchedules 今天（配置时区）开始的课程安排，开启班级校验时只返回用户所在班级的
func (s *ScheduleService) TodaySchedules(ctx context.Context, userID int64) ([]dto.ScheduleItem, error) {
	now := s.now()
	from, to := dayBounds(now, s.location)

	var classIDs []int64
	if s.requireEnrollment {
		ids, err := s.memberships.ClassIDsOfUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to query user classes: %w", err)
		}
		classIDs = ids
	}

	schedules, err := s.schedules.StartingBetween(ctx, from, to, classIDs)
	if err != nil {
		logger.Logger.Error("Failed to load today schedules", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}

	return s.toItems(schedules, now), nil
}

// List 管理员查看课程安排，可按日期过滤
func (s *ScheduleService) List(ctx context.Context, q dto.ScheduleQuery) (*dto.ScheduleListResponse, error) {
	var from, to time.Time
	if date := strings.TrimSpace(q.Date); date != "" {
		day, err := time.ParseInLocation(dateLayout, date, s.location)
		if err != nil {
			return nil, pkgerrors.InvalidInput.WithMessage("date must be a date in YYYY-MM-DD format")
		}
		from, to = dayBounds(day, s.location)
	}

	page, perPage := repository.NormalizePage(q.Page, q.PerPage)
	schedules, total, err := s.schedules.List(ctx, from, to, page, perPage)
	if err != nil {
		return nil, err
	}

	return &dto.ScheduleListResponse{
		Items: s.toItems(schedules, s.now()),
		Meta: dto.PageMeta{
			CurrentPage: page,
			LastPage:    repository.LastPage(total, perPage),
			PerPage:     perPage,
			Total:       total,
		},
	}, nil
}

// Create 创建课程安排，引用的地点、课程、班级必须存在
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*dto.ScheduleItem, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, pkgerrors.ScheduleInvalid
	}

	if err := s.mustExist(ctx, s.locations, req.LocationID, pkgerrors.LocationNotFound); err != nil {
		return nil, err
	}
	if req.CourseID != nil {
		if err := s.mustExist(ctx, s.courses, *req.CourseID, pkgerrors.CourseNotFound); err != nil {
			return nil, err
		}
	}
	if req.ClassID != nil {
		if err := s.mustExist(ctx, s.classes, *req.ClassID, pkgerrors.ClassNotFound); err != nil {
			return nil, err
		}
	}

	schedule := &model.Schedule{
		LocationID: req.LocationID,
		CourseID:   req.CourseID,
		ClassID:    req.ClassID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	// 清掉可能存在的“不存在”缓存
	if s.cache != nil {
		s.cache.Invalidate(ctx, schedule.ID)
	}

	created, err := s.schedules.GetByID(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload schedule: %w", err)
	}

	logger.Logger.Info("Schedule created",
		zap.Int64("schedule_id", created.ID),
		zap.Int64("location_id", created.LocationID),
		zap.Time("start_time", created.StartTime),
		zap.Time("end_time", created.EndTime),
	)

	item := s.toItem(created, s.now())
	return &item, nil
}

func (s *ScheduleService) mustExist(ctx context.Context, checker existence, id int64, notFound pkgerrors.Definition) error {
	ok, err := checker.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", strings.ToLower(notFound.Code), err)
	}
	if !ok {
		return notFound
	}
	return nil
}

func (s *ScheduleService) toItems(schedules []model.Schedule, now time.Time) []dto.ScheduleItem {
	items := make([]dto.ScheduleItem, 0, len(schedules))
	for i := range schedules {
		items = append(items, s.toItem(&schedules[i], now))
	}
	return items
}

func (s *ScheduleService) toItem(sc *model.Schedule, now time.Time) dto.ScheduleItem {
	item := dto.ScheduleItem{
		StartTime:  sc.StartTime,
		EndTime:    sc.EndTime,
		ID:         strconv.FormatInt(sc.ID, 10),
		LocationID: strconv.FormatInt(sc.LocationID, 10),
	}

	snapshot := &attendance.Schedule{ID: sc.ID, StartTime: sc.StartTime, EndTime: sc.EndTime}
	if sc.Location != nil {
		item.LocationName = sc.Location.Name
		item.Latitude = sc.Location.Latitude
		item.Longitude = sc.Location.Longitude
		item.RadiusMeters = sc.Location.RadiusMeters
		snapshot.Center = geo.Point{Latitude: sc.Location.Latitude, Longitude: sc.Location.Longitude}
	}
	if sc.CourseID != nil {
		item.CourseID = strconv.FormatInt(*sc.CourseID, 10)
	}
	if sc.Course != nil {
		item.CourseName = sc.Course.CourseName
		item.CourseCode = sc.Course.CourseCode
	}
	if sc.ClassID != nil {
		item.ClassID = strconv.FormatInt(*sc.ClassID, 10)
	}
	if sc.Class != nil {
		item.ClassName = sc.Class.Name
	}

	item.IsActive = s.window.IsActive(now, snapshot)
	return item
}
