package attendance

import (
	"time"

	pkgerrors "GeoAttend/pkg/errors"
)

// ReportFilter 报表过滤条件，nil 表示不限制。多个条件之间为“与”关系
type ReportFilter struct {
	From       *time.Time // 按日期比较，包含当天
	To         *time.Time // 按日期比较，包含当天
	ScheduleID *int64
	Location   *time.Location // 切日所用时区，nil 为 UTC
}

func (f ReportFilter) loc() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Validate From 不能晚于 To
func (f ReportFilter) Validate() error {
	if f.From != nil && f.To != nil {
		if startOfDay(*f.From, f.loc()).After(startOfDay(*f.To, f.loc())) {
			return pkgerrors.InvalidInput.WithMessage("start_date must not be after end_date")
		}
	}
	if f.ScheduleID != nil && *f.ScheduleID <= 0 {
		return pkgerrors.InvalidInput.WithMessage("schedule_id must be a positive integer")
	}
	return nil
}

// CreatedBounds 转换为 created_at 的半开区间 [lower, upper)，零值表示不限制
func (f ReportFilter) CreatedBounds() (lower, upper time.Time) {
	if f.From != nil {
		lower = startOfDay(*f.From, f.loc())
	}
	if f.To != nil {
		upper = startOfDay(*f.To, f.loc()).AddDate(0, 0, 1)
	}
	return lower, upper
}

// Matches 记录是否满足所有已提供的条件
func (f ReportFilter) Matches(r *Record) bool {
	if r == nil {
		return false
	}
	lower, upper := f.CreatedBounds()
	if !lower.IsZero() && r.CreatedAt.Before(lower) {
		return false
	}
	if !upper.IsZero() && !r.CreatedAt.Before(upper) {
		return false
	}
	if f.ScheduleID != nil && r.ScheduleID != *f.ScheduleID {
		return false
	}
	return true
}
