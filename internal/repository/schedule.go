package repository

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"GeoAttend/internal/model"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

// GetByID 预加载地点、课程与班级
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Course").
		Preload("Class").
		Where("id = ?", id).
		Take(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List 可选按 [from, to) 过滤开始时间，按开始时间倒序分页
func (r *ScheduleRepository) List(ctx context.Context, from, to time.Time, page, perPage int) ([]model.Schedule, int64, error) {
	page, perPage = NormalizePage(page, perPage)

	scoped := func(db *gorm.DB) *gorm.DB {
		if !from.IsZero() {
			db = db.Where("start_time >= ?", from)
		}
		if !to.IsZero() {
			db = db.Where("start_time < ?", to)
		}
		return db
	}

	var (
		schedules []model.Schedule
		total     int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.db.WithContext(gctx).
			Clauses(dbresolver.Read).
			Model(&model.Schedule{}).
			Scopes(scoped).
			Count(&total).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).
			Clauses(dbresolver.Read).
			Preload("Location").
			Preload("Course").
			Preload("Class").
			Scopes(scoped).
			Order("start_time DESC, id DESC").
			Offset(offset(page, perPage)).
			Limit(perPage).
			Find(&schedules).Error
	})

	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, total, nil
}

// StartingBetween 开始时间落在 [from, to) 的课程安排，按开始时间升序。
// classIDs 非 nil 时只返回这些班级的课程安排
func (r *ScheduleRepository) StartingBetween(ctx context.Context, from, to time.Time, classIDs []int64) ([]model.Schedule, error) {
	q := r.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Preload("Location").
		Preload("Course").
		Preload("Class").
		Where("start_time >= ? AND start_time < ?", from, to)

	if classIDs != nil {
		if len(classIDs) == 0 {
			return []model.Schedule{}, nil
		}
		q = q.Where("class_id IN ?", classIDs)
	}

	var schedules []model.Schedule
	if err := q.Order("start_time ASC, id ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// IDsByLocation 地点修改后用于失效课程安排缓存
func (r *ScheduleRepository) IDsByLocation(ctx context.Context, locationID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("location_id = ?", locationID).
		Pluck("id", &ids).Error
	return ids, err
}
