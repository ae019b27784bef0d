package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"GeoAttend/config"
	"GeoAttend/internal/attendance"
	"GeoAttend/internal/cache"
	"GeoAttend/internal/queue"
	"GeoAttend/internal/repository"
	"GeoAttend/pkg/logger"
	"GeoAttend/storage/database"
)

// Init 构建所有服务单例，依赖存储层已完成初始化
func Init() error {
	cfg := config.Cfg
	db := database.DB()
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	attendanceRepo := repository.NewAttendanceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	classRepo := repository.NewClassRepository(db)
	userRepo := repository.NewUserRepository(db)

	scheduleCache := cache.NewScheduleCache(time.Duration(cfg.AttendanceScheduleCacheMinute)*time.Minute, true)
	store := NewCachedStore(attendanceRepo, scheduleCache)

	opts := []attendance.Option{attendance.WithLocker(cache.SubmitLocker{})}
	if cfg.AttendanceRequireEnrollment {
		opts = append(opts, attendance.WithEnrollment(attendanceRepo))
	}

	engine, err := attendance.NewEngine(store, attendance.Config{
		ToleranceMinutes:  cfg.AttendanceToleranceMinutes,
		RequireEnrollment: cfg.AttendanceRequireEnrollment,
		DuplicatePolicy:   attendance.DuplicatePolicy(cfg.AttendanceDuplicatePolicy),
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to build attendance engine: %w", err)
	}

	loc := cfg.Location()

	SetAttendance(NewAttendanceService(AttendanceDeps{
		Engine:   engine,
		Store:    store,
		Reader:   attendanceRepo,
		Tally:    cache.TallyStore{},
		Publish:  queue.PublishAttendanceRecorded,
		Location: loc,
	}))
	SetSchedule(NewScheduleService(ScheduleDeps{
		Schedules:         scheduleRepo,
		Locations:         locationRepo,
		Courses:           courseRepo,
		Classes:           classRepo,
		Memberships:       classRepo,
		Cache:             scheduleCache,
		Window:            engine.Window(),
		RequireEnrollment: cfg.AttendanceRequireEnrollment,
		Location:          loc,
	}))
	SetAuth(NewAuthService(userRepo))
	SetUser(NewUserService(userRepo, classRepo))
	SetLocation(NewLocationService(locationRepo, scheduleRepo, scheduleCache))
	SetCourse(NewCourseService(courseRepo))
	SetClass(NewClassService(classRepo, userRepo))

	logger.Logger.Info("Services initialized",
		zap.String("duplicate_policy", string(engine.Policy())),
		zap.Duration("tolerance", engine.Window().Tolerance),
		zap.Bool("require_enrollment", cfg.AttendanceRequireEnrollment),
		zap.String("timezone", loc.String()),
	)

	if cfg.AdminIdentityNumber != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := User().EnsureAdmin(ctx, cfg.AdminIdentityNumber, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	return nil
}
