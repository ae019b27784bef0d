package model

import "time"

// Schedule 课程安排，创建后不可修改
type Schedule struct {
	BaseModel
	LocationID int64     `gorm:"not null;index:idx_schedules_location" json:"location_id"`
	CourseID   *int64    `gorm:"index:idx_schedules_course" json:"course_id,omitempty"`
	ClassID    *int64    `gorm:"index:idx_schedules_class" json:"class_id,omitempty"`
	StartTime  time.Time `gorm:"type:timestamptz;not null;index:idx_schedules_start_time" json:"start_time"`
	EndTime    time.Time `gorm:"type:timestamptz;not null" json:"end_time"`

	Location *Location  `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Course   *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Class    *ClassRoom `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

func (Schedule) TableName() string {
	return "schedules"
}
