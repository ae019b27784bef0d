package model

// AttendanceRecordedMessage 考勤记录写入后发布的事件
type AttendanceRecordedMessage struct {
	MessageID      string  `json:"message_id"` // 消息唯一ID，用于幂等性检查
	Status         string  `json:"status"`
	OccurredAt     string  `json:"occurred_at"`
	RecordID       int64   `json:"record_id"`
	UserID         int64   `json:"user_id"`
	ScheduleID     int64   `json:"schedule_id"`
	DistanceMeters float64 `json:"distance_meters"`
}
