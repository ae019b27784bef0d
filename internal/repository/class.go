package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"GeoAttend/internal/model"
)

type ClassRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) Create(ctx context.Context, class *model.ClassRoom) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *ClassRepository) List(ctx context.Context) ([]model.ClassRoom, error) {
	var classes []model.ClassRoom
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&classes).Error
	return classes, err
}

func (r *ClassRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, &model.ClassRoom{}, id)
}

// AddMembers 批量加入班级，已是成员的跳过，返回新增人数
func (r *ClassRepository) AddMembers(ctx context.Context, classID int64, userIDs []int64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	members := make([]model.ClassUser, 0, len(userIDs))
	for _, uid := range userIDs {
		members = append(members, model.ClassUser{ClassID: classID, UserID: uid})
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&members)
	return result.RowsAffected, result.Error
}

// ClassesOfUser 用户所属的班级
func (r *ClassRepository) ClassesOfUser(ctx context.Context, userID int64) ([]model.ClassRoom, error) {
	var classes []model.ClassRoom
	err := r.db.WithContext(ctx).
		Joins("JOIN class_users ON class_users.class_id = class_rooms.id").
		Where("class_users.user_id = ?", userID).
		Order("class_rooms.name ASC").
		Find(&classes).Error
	return classes, err
}

// ClassIDsOfUser 用户所属班级 id，没有时返回空切片
func (r *ClassRepository) ClassIDsOfUser(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Model(&model.ClassUser{}).
		Where("user_id = ?", userID).
		Pluck("class_id", &ids).Error
	return ids, err
}
