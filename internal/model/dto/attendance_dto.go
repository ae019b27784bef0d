package dto

import "time"

// ========== Attendance 相关 DTO ==========

// SubmitAttendanceRequest 提交考勤，坐标缺失视为非法输入
type SubmitAttendanceRequest struct {
	ScheduleID int64    `json:"schedule_id"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// AttendanceResult 判定结果，refused 时 distance/status/record_id 为 null
type AttendanceResult struct {
	Classification string   `json:"classification"`
	DistanceMeters *float64 `json:"distance_meters"`
	ReasonCode     *string  `json:"reason_code"`
	Message        string   `json:"message"`
	Status         *string  `json:"status"`
	RecordID       *string  `json:"record_id"`
}

// PageQuery 分页参数
type PageQuery struct {
	Page    int `query:"page"`
	PerPage int `query:"per_page"`
}

// PageMeta 分页元数据
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// AttendanceHistoryItem 个人考勤历史
type AttendanceHistoryItem struct {
	CreatedAt      time.Time `json:"created_at"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ID             string    `json:"id"`
	ScheduleID     string    `json:"schedule_id"`
	CourseName     string    `json:"course_name"`
	CourseCode     string    `json:"course_code"`
	LocationName   string    `json:"location_name"`
	Status         string    `json:"status"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DistanceMeters float64   `json:"distance_meters"`
}

// AttendanceHistoryResponse 历史列表
type AttendanceHistoryResponse struct {
	Items []AttendanceHistoryItem `json:"items"`
	Meta  PageMeta                `json:"meta"`
}

// ReportQuery 报表查询参数，日期格式 YYYY-MM-DD
type ReportQuery struct {
	StartDate  string `query:"start_date"`
	EndDate    string `query:"end_date"`
	ScheduleID string `query:"schedule_id"`
}

// AttendanceReportItem 报表行
type AttendanceReportItem struct {
	CreatedAt      time.Time `json:"created_at"`
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	IdentityNumber string    `json:"identity_number"`
	ScheduleID     string    `json:"schedule_id"`
	CourseName     string    `json:"course_name"`
	LocationName   string    `json:"location_name"`
	Status         string    `json:"status"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DistanceMeters float64   `json:"distance_meters"`
}

// AttendanceSummaryResponse 单个课程安排的考勤统计
type AttendanceSummaryResponse struct {
	ScheduleID string `json:"schedule_id"`
	Present    int64  `json:"present"`
	Rejected   int64  `json:"rejected"`
	Total      int64  `json:"total"`
}
