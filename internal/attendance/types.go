// Package attendance 考勤判定引擎：时间窗口、重复提交策略与距离判定。
// 引擎只依赖下面的协作者接口，不直接访问数据库或缓存。
package attendance

import (
	"context"
	stderrors "errors"
	"time"

	"GeoAttend/pkg/geo"
)

// Status 持久化的考勤状态
type Status string

const (
	StatusPresent  Status = "present"  // 在半径内
	StatusRejected Status = "rejected" // 超出半径
)

// Classification 单次提交的判定结果
type Classification string

const (
	ClassAccepted   Classification = "accepted"
	ClassOutOfRange Classification = "out_of_range"
	ClassRefused    Classification = "refused"
)

// ReasonCode 拒绝原因，仅 ClassRefused 时有值
type ReasonCode string

const (
	ReasonInactiveWindow ReasonCode = "inactive_window"
	ReasonDuplicate      ReasonCode = "duplicate"
	ReasonNotEnrolled    ReasonCode = "not_enrolled"
)

// DuplicatePolicy 重复提交策略
type DuplicatePolicy string

const (
	// PolicyStrict 任意已有记录都阻止再次提交
	PolicyStrict DuplicatePolicy = "strict"
	// PolicyRetryable 只有 present 记录阻止再次提交，超出半径后可重新提交
	PolicyRetryable DuplicatePolicy = "retryable"
)

// BlockingStatuses 返回在该策略下会阻止再次提交的状态
func (p DuplicatePolicy) BlockingStatuses() []Status {
	if p == PolicyStrict {
		return []Status{StatusPresent, StatusRejected}
	}
	return []Status{StatusPresent}
}

var (
	// ErrScheduleNotFound Store 找不到课程安排时返回
	ErrScheduleNotFound = stderrors.New("schedule not found")
	// ErrDuplicateAttendance Store 插入触发唯一约束时返回
	ErrDuplicateAttendance = stderrors.New("duplicate attendance")
)

// Schedule 判定所需的课程安排快照，由存储层一次性解析好
type Schedule struct {
	ID           int64     `json:"id"`
	ClassID      int64     `json:"class_id"` // 0 表示未绑定班级
	LocationID   int64     `json:"location_id"`
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radius_meters"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// Record 一条考勤记录，创建后不再修改
type Record struct {
	ID             int64
	UserID         int64
	ScheduleID     int64
	Point          geo.Point
	DistanceMeters float64
	Status         Status
	CreatedAt      time.Time
}

// Submission 一次考勤提交
type Submission struct {
	UserID     int64
	ScheduleID int64
	Point      geo.Point
}

// Outcome 判定结果。DistanceMeters 保留两位小数，记录中保存原始精度
type Outcome struct {
	Classification Classification
	Reason         ReasonCode
	DistanceMeters *float64
	Message        string
	Record         *Record
}

// Persisted 是否写入了考勤记录
func (o *Outcome) Persisted() bool {
	return o.Record != nil
}

// Store 存储协作者
type Store interface {
	FindSchedule(ctx context.Context, scheduleID int64) (*Schedule, error)
	// FindExistingAttendance 查询 (user, schedule) 的已有记录，statuses 为空表示不限状态；没有记录返回 nil, nil
	FindExistingAttendance(ctx context.Context, userID, scheduleID int64, statuses ...Status) (*Record, error)
	InsertAttendance(ctx context.Context, record *Record) error
}

// Enrollment 身份协作者：用户是否属于课程安排所在班级
type Enrollment interface {
	IsEnrolled(ctx context.Context, userID, classID int64) (bool, error)
}

// Locker 可选的提交锁，锁住 (user, schedule) 防止并发重复提交。
// TryLock 返回本次持有者的 token，Unlock 只释放 token 匹配的锁
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Clock 时钟协作者，测试中注入固定时间
type Clock func() time.Time
