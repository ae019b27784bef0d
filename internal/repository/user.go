package repository

import (
	"context"

	"gorm.io/gorm"

	"GeoAttend/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit("Classes").Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByIdentityNumber(ctx context.Context, identityNumber string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("identity_number = ?", identityNumber).
		Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistingIDs 返回 ids 中实际存在的用户 id
func (r *UserRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	found := []int64{}
	if len(ids) == 0 {
		return found, nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	return found, err
}
