package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 所有表共用的主键与时间列。
// 删除均为软删除，迁移里的部分唯一索引依赖 deleted_at IS NULL
type BaseModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"not null;default:now();autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
