package repository

import (
	"context"

	"gorm.io/gorm"

	"GeoAttend/internal/model"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Create(ctx context.Context, location *model.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

// Update 更新名称、坐标与半径，返回 gorm.ErrRecordNotFound 表示不存在
func (r *LocationRepository) Update(ctx context.Context, location *model.Location) error {
	result := r.db.WithContext(ctx).
		Model(&model.Location{}).
		Where("id = ?", location.ID).
		Updates(map[string]interface{}{
			"name":          location.Name,
			"latitude":      location.Latitude,
			"longitude":     location.Longitude,
			"radius_meters": location.RadiusMeters,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*model.Location, error) {
	var location model.Location
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *LocationRepository) List(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&locations).Error
	return locations, err
}

func (r *LocationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, &model.Location{}, id)
}

// exists 按主键判断记录是否存在（软删除的记录视为不存在）
func exists(ctx context.Context, db *gorm.DB, m interface{}, id int64) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
