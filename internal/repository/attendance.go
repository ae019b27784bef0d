package repository

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/model"
	"GeoAttend/pkg/geo"
)

// AttendanceRepository 同时实现 attendance.Store 与 attendance.Enrollment
type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

type scheduleRow struct {
	StartTime    time.Time
	EndTime      time.Time
	ClassID      *int64
	ID           int64
	LocationID   int64
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// FindSchedule 一次查询解析出课程安排及其地点
func (r *AttendanceRepository) FindSchedule(ctx context.Context, scheduleID int64) (*attendance.Schedule, error) {
	var row scheduleRow
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Table("schedules AS s").
		Select("s.id, s.class_id, s.location_id, s.start_time, s.end_time, l.latitude, l.longitude, l.radius_meters").
		Joins("JOIN locations AS l ON l.id = s.location_id AND l.deleted_at IS NULL").
		Where("s.id = ? AND s.deleted_at IS NULL", scheduleID).
		Take(&row).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, attendance.ErrScheduleNotFound
		}
		return nil, err
	}

	sc := &attendance.Schedule{
		ID:           row.ID,
		LocationID:   row.LocationID,
		Center:       geo.Point{Latitude: row.Latitude, Longitude: row.Longitude},
		RadiusMeters: row.RadiusMeters,
		StartTime:    row.StartTime,
		EndTime:      row.EndTime,
	}
	if row.ClassID != nil {
		sc.ClassID = *row.ClassID
	}
	return sc, nil
}

// FindExistingAttendance 主库查询，避免副本延迟导致漏判重复
func (r *AttendanceRepository) FindExistingAttendance(
	ctx context.Context,
	userID, scheduleID int64,
	statuses ...attendance.Status,
) (*attendance.Record, error) {
	q := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("user_id = ? AND schedule_id = ?", userID, scheduleID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var existing model.Attendance
	err := q.Order("id DESC").Take(&existing).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return existing.ToRecord(), nil
}

// InsertAttendance 写入记录并回填 ID 与创建时间
func (r *AttendanceRepository) InsertAttendance(ctx context.Context, record *attendance.Record) error {
	m := model.NewAttendance(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return attendance.ErrDuplicateAttendance
		}
		return err
	}

	record.ID = m.ID
	record.CreatedAt = m.CreatedAt
	return nil
}

func (r *AttendanceRepository) IsEnrolled(ctx context.Context, userID, classID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.ClassUser{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HistoryRow 个人历史行
type HistoryRow struct {
	CreatedAt      time.Time
	StartTime      time.Time
	EndTime        time.Time
	CourseName     string
	CourseCode     string
	LocationName   string
	Status         string
	ID             int64
	ScheduleID     int64
	Latitude       float64
	Longitude      float64
	DistanceMeters float64
}

// History 按时间倒序分页，count 与分页查询并发执行
func (r *AttendanceRepository) History(ctx context.Context, userID int64, page, perPage int) ([]HistoryRow, int64, error) {
	page, perPage = NormalizePage(page, perPage)

	var (
		rows  []HistoryRow
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.db.WithContext(gctx).
			Clauses(dbresolver.Read).
			Model(&model.Attendance{}).
			Where("user_id = ?", userID).
			Count(&total).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).
			Clauses(dbresolver.Read).
			Table("attendances AS a").
			Select("a.id, a.schedule_id, a.latitude, a.longitude, a.distance_meters, a.status, a.created_at, " +
				"s.start_time, s.end_time, COALESCE(c.course_name, '') AS course_name, " +
				"COALESCE(c.course_code, '') AS course_code, COALESCE(l.name, '') AS location_name").
			Joins("JOIN schedules AS s ON s.id = a.schedule_id").
			Joins("LEFT JOIN courses AS c ON c.id = s.course_id").
			Joins("LEFT JOIN locations AS l ON l.id = s.location_id").
			Where("a.user_id = ? AND a.deleted_at IS NULL", userID).
			Order("a.created_at DESC, a.id DESC").
			Offset(offset(page, perPage)).
			Limit(perPage).
			Scan(&rows).Error
	})

	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance history: %w", err)
	}
	return rows, total, nil
}

// ReportRow 报表行
type ReportRow struct {
	CreatedAt      time.Time
	UserName       string
	IdentityNumber string
	CourseName     string
	LocationName   string
	Status         string
	ID             int64
	UserID         int64
	ScheduleID     int64
	Latitude       float64
	Longitude      float64
	DistanceMeters float64
}

// Report 按 ReportFilter 过滤，按时间倒序
func (r *AttendanceRepository) Report(ctx context.Context, filter attendance.ReportFilter) ([]ReportRow, error) {
	q := r.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Table("attendances AS a").
		Select("a.id, a.user_id, a.schedule_id, a.latitude, a.longitude, a.distance_meters, a.status, a.created_at, " +
			"COALESCE(u.name, '') AS user_name, COALESCE(u.identity_number, '') AS identity_number, " +
			"COALESCE(c.course_name, '') AS course_name, COALESCE(l.name, '') AS location_name").
		Joins("LEFT JOIN users AS u ON u.id = a.user_id").
		Joins("JOIN schedules AS s ON s.id = a.schedule_id").
		Joins("LEFT JOIN courses AS c ON c.id = s.course_id").
		Joins("LEFT JOIN locations AS l ON l.id = s.location_id").
		Where("a.deleted_at IS NULL")

	lower, upper := filter.CreatedBounds()
	if !lower.IsZero() {
		q = q.Where("a.created_at >= ?", lower)
	}
	if !upper.IsZero() {
		q = q.Where("a.created_at < ?", upper)
	}
	if filter.ScheduleID != nil {
		q = q.Where("a.schedule_id = ?", *filter.ScheduleID)
	}

	var rows []ReportRow
	if err := q.Order("a.created_at DESC, a.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query attendance report: %w", err)
	}
	return rows, nil
}

// CountBySchedule 按状态统计某个课程安排的记录数，读副本
func (r *AttendanceRepository) CountBySchedule(ctx context.Context, scheduleID int64) (map[string]int64, error) {
	return r.countBySchedule(ctx, dbresolver.Read, scheduleID)
}

// RecountBySchedule 同 CountBySchedule，但读主库，刚提交的记录一定可见
func (r *AttendanceRepository) RecountBySchedule(ctx context.Context, scheduleID int64) (map[string]int64, error) {
	return r.countBySchedule(ctx, dbresolver.Write, scheduleID)
}

func (r *AttendanceRepository) countBySchedule(ctx context.Context, target dbresolver.Operation, scheduleID int64) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Clauses(target).
		Model(&model.Attendance{}).
		Select("status, COUNT(*) AS count").
		Where("schedule_id = ?", scheduleID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Count
	}
	return result, nil
}
