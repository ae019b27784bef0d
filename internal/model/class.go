package model

import "time"

// ClassRoom 班级
type ClassRoom struct {
	BaseModel
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	AcademicYear string `gorm:"type:varchar(32);not null;default:''" json:"academic_year"`
}

func (ClassRoom) TableName() string {
	return "class_rooms"
}

// ClassUser 班级成员关系，(class_id, user_id) 唯一
type ClassUser struct {
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	ClassID   int64     `gorm:"primaryKey;autoIncrement:false" json:"class_id"`
	UserID    int64     `gorm:"primaryKey;autoIncrement:false;index:idx_class_users_user" json:"user_id"`
}

func (ClassUser) TableName() string {
	return "class_users"
}
