package attendance

import (
	"fmt"
	"time"
)

// Window 判断当前时间是否处于课程安排的有效时间窗口内
type Window struct {
	Tolerance time.Duration
}

// NewWindow toleranceMinutes 同时向前、向后扩展窗口
func NewWindow(toleranceMinutes int) (Window, error) {
	if toleranceMinutes < 0 {
		return Window{}, fmt.Errorf("tolerance minutes must be non-negative, got %d", toleranceMinutes)
	}
	return Window{Tolerance: time.Duration(toleranceMinutes) * time.Minute}, nil
}

// IsActive now ∈ [start - tolerance, end + tolerance]，两端包含
func (w Window) IsActive(now time.Time, schedule *Schedule) bool {
	if schedule == nil {
		return false
	}
	opensAt := schedule.StartTime.Add(-w.Tolerance)
	closesAt := schedule.EndTime.Add(w.Tolerance)
	return !now.Before(opensAt) && !now.After(closesAt)
}
