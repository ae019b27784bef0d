package model

import (
	"GeoAttend/internal/attendance"
	"GeoAttend/pkg/geo"
)

// Attendance 考勤记录，只由判定引擎创建，不更新
// (user_id, schedule_id) 的唯一索引由迁移按重复提交策略创建
type Attendance struct {
	BaseModel
	UserID         int64             `gorm:"not null;index:idx_attendances_user" json:"user_id"`
	ScheduleID     int64             `gorm:"not null;index:idx_attendances_schedule" json:"schedule_id"`
	Latitude       float64           `gorm:"type:double precision;not null" json:"latitude"`
	Longitude      float64           `gorm:"type:double precision;not null" json:"longitude"`
	DistanceMeters float64           `gorm:"type:double precision;not null" json:"distance_meters"`
	Status         attendance.Status `gorm:"type:varchar(16);not null;index:idx_attendances_status" json:"status"`

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Schedule *Schedule `gorm:"foreignKey:ScheduleID" json:"schedule,omitempty"`
}

func (Attendance) TableName() string {
	return "attendances"
}

// NewAttendance 由判定结果构造待插入的记录
func NewAttendance(r *attendance.Record) *Attendance {
	return &Attendance{
		UserID:         r.UserID,
		ScheduleID:     r.ScheduleID,
		Latitude:       r.Point.Latitude,
		Longitude:      r.Point.Longitude,
		DistanceMeters: r.DistanceMeters,
		Status:         r.Status,
	}
}

// ToRecord 转换为引擎使用的记录
func (a *Attendance) ToRecord() *attendance.Record {
	return &attendance.Record{
		ID:             a.ID,
		UserID:         a.UserID,
		ScheduleID:     a.ScheduleID,
		Point:          geo.Point{Latitude: a.Latitude, Longitude: a.Longitude},
		DistanceMeters: a.DistanceMeters,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt,
	}
}
