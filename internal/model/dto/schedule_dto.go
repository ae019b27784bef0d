package dto

import "time"

// ========== Schedule / Location / Course / Class DTO ==========

// ScheduleItem 课程安排，is_active 按当前时间与容差计算
type ScheduleItem struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ID           string    `json:"id"`
	LocationID   string    `json:"location_id"`
	CourseID     string    `json:"course_id,omitempty"`
	ClassID      string    `json:"class_id,omitempty"`
	CourseName   string    `json:"course_name"`
	CourseCode   string    `json:"course_code"`
	ClassName    string    `json:"class_name"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters float64   `json:"radius_meters"`
	IsActive     bool      `json:"is_active"`
}

// ScheduleListResponse 分页列表
type ScheduleListResponse struct {
	Items []ScheduleItem `json:"items"`
	Meta  PageMeta       `json:"meta"`
}

// LocationRequest 创建/更新考勤地点
type LocationRequest struct {
	Name         string   `json:"name" validate:"required,max=255"`
	Latitude     *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	RadiusMeters *float64 `json:"radius_meters" validate:"required,gt=0,lte=100000"`
}

type LocationItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// CreateCourseRequest 创建课程
type CreateCourseRequest struct {
	CourseName   string `json:"course_name" validate:"required,max=255"`
	CourseCode   string `json:"course_code" validate:"required,max=64"`
	LecturerName string `json:"lecturer_name" validate:"omitempty,max=255"`
}

type CourseItem struct {
	ID           string `json:"id"`
	CourseName   string `json:"course_name"`
	CourseCode   string `json:"course_code"`
	LecturerName string `json:"lecturer_name"`
}

// CreateClassRequest 创建班级
type CreateClassRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	AcademicYear string `json:"academic_year" validate:"omitempty,max=32"`
}

// AddClassMembersRequest 批量加入班级
type AddClassMembersRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,max=500,dive,gt=0"`
}

// AddClassMembersResponse added 为新加入人数，已是成员的不计入
type AddClassMembersResponse struct {
	ClassID string `json:"class_id"`
	Added   int64  `json:"added"`
}

// CreateScheduleRequest 创建课程安排，结束时间必须晚于开始时间
type CreateScheduleRequest struct {
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	CourseID   *int64    `json:"course_id" validate:"omitempty,gt=0"`
	ClassID    *int64    `json:"class_id" validate:"omitempty,gt=0"`
	LocationID int64     `json:"location_id" validate:"required,gt=0"`
}

// ScheduleQuery 课程安排列表过滤
type ScheduleQuery struct {
	Date    string `query:"date"` // YYYY-MM-DD，按配置时区
	Page    int    `query:"page"`
	PerPage int    `query:"per_page"`
}
