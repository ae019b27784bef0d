package attendance

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	pkgerrors "GeoAttend/pkg/errors"
	"GeoAttend/pkg/geo"
	"GeoAttend/pkg/logger"
)

const (
	submitLockTTL = 10 * time.Second

	MessageAccepted       = "Attendance recorded"
	MessageOutOfRange     = "Attendance rejected: position is outside the permitted radius"
	MessageInactiveWindow = "Attendance can only be submitted while the schedule is active"
	MessageDuplicate      = "Attendance has already been submitted for this schedule"
	MessageNotEnrolled    = "You are not enrolled in the class of this schedule"
)

// Config 引擎策略配置
type Config struct {
	ToleranceMinutes  int
	RequireEnrollment bool
	DuplicatePolicy   DuplicatePolicy
}

// Engine 考勤判定引擎，无内部可变状态，可并发使用
type Engine struct {
	store      Store
	enrollment Enrollment
	locker     Locker
	clock      Clock
	window     Window
	policy     DuplicatePolicy
	requireEnr bool
}

// Option 可选协作者
type Option func(*Engine)

func WithEnrollment(e Enrollment) Option {
	return func(engine *Engine) { engine.enrollment = e }
}

func WithLocker(l Locker) Option {
	return func(engine *Engine) { engine.locker = l }
}

func WithClock(c Clock) Option {
	return func(engine *Engine) { engine.clock = c }
}

func NewEngine(store Store, cfg Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("attendance store is required")
	}

	window, err := NewWindow(cfg.ToleranceMinutes)
	if err != nil {
		return nil, err
	}

	policy := cfg.DuplicatePolicy
	switch policy {
	case "":
		policy = PolicyRetryable
	case PolicyStrict, PolicyRetryable:
	default:
		return nil, fmt.Errorf("unknown duplicate policy %q", policy)
	}

	e := &Engine{
		store:      store,
		clock:      time.Now,
		window:     window,
		policy:     policy,
		requireEnr: cfg.RequireEnrollment,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.requireEnr && e.enrollment == nil {
		return nil, fmt.Errorf("enrollment checker is required when enrollment is enforced")
	}

	return e, nil
}

// Policy 当前的重复提交策略
func (e *Engine) Policy() DuplicatePolicy {
	return e.policy
}

// Window 当前的时间窗口配置
func (e *Engine) Window() Window {
	return e.window
}

// Evaluate 判定一次提交。
// 入参非法返回 INVALID_INPUT，课程安排不存在返回 SCHEDULE_NOT_FOUND；
// 其余拒绝情况都以 Outcome 返回，只有 accepted / out_of_range 会写入记录。
func (e *Engine) Evaluate(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.UserID <= 0 {
		return nil, pkgerrors.InvalidInput.WithMessage("user id is required")
	}
	if sub.ScheduleID <= 0 {
		return nil, pkgerrors.InvalidInput.WithMessage("schedule_id must be a positive integer")
	}
	if err := sub.Point.Validate(); err != nil {
		return nil, err
	}

	schedule, err := e.store.FindSchedule(ctx, sub.ScheduleID)
	if err != nil {
		if stderrors.Is(err, ErrScheduleNotFound) {
			return nil, pkgerrors.ScheduleNotFound
		}
		return nil, fmt.Errorf("failed to resolve schedule %d: %w", sub.ScheduleID, err)
	}

	if e.requireEnr {
		enrolled := false
		if schedule.ClassID > 0 {
			enrolled, err = e.enrollment.IsEnrolled(ctx, sub.UserID, schedule.ClassID)
			if err != nil {
				return nil, fmt.Errorf("failed to check enrollment: %w", err)
			}
		}
		if !enrolled {
			return refused(ReasonNotEnrolled, MessageNotEnrolled), nil
		}
	}

	if !e.window.IsActive(e.clock(), schedule) {
		return refused(ReasonInactiveWindow, MessageInactiveWindow), nil
	}

	if e.locker != nil {
		key := fmt.Sprintf("attendance:%d:%d", sub.UserID, sub.ScheduleID)
		token, locked, lockErr := e.locker.TryLock(ctx, key, submitLockTTL)
		switch {
		case lockErr != nil:
			// 锁只是辅助，唯一约束才是最终保证
			logger.Logger.Warn("Failed to acquire attendance lock, relying on unique constraint",
				zap.Int64("user_id", sub.UserID),
				zap.Int64("schedule_id", sub.ScheduleID),
				zap.Error(lockErr),
			)
		case !locked && e.policy == PolicyStrict:
			// strict 下进行中的提交无论结果如何都会留下记录
			return refused(ReasonDuplicate, MessageDuplicate), nil
		case !locked:
			// retryable 下进行中的提交可能是 out_of_range，交给重复检查与部分唯一索引判定
			logger.Logger.Debug("Attendance lock held by a concurrent submission",
				zap.Int64("user_id", sub.UserID),
				zap.Int64("schedule_id", sub.ScheduleID),
			)
		default:
			defer func() {
				if err := e.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					logger.Logger.Warn("Failed to release attendance lock", zap.String("key", key), zap.Error(err))
				}
			}()
		}
	}

	existing, err := e.store.FindExistingAttendance(ctx, sub.UserID, sub.ScheduleID, e.policy.BlockingStatuses()...)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing attendance: %w", err)
	}
	if existing != nil {
		return refused(ReasonDuplicate, MessageDuplicate), nil
	}

	distance := geo.Distance(sub.Point, schedule.Center)
	status, class, message := StatusRejected, ClassOutOfRange, MessageOutOfRange
	if distance <= schedule.RadiusMeters {
		status, class, message = StatusPresent, ClassAccepted, MessageAccepted
	}

	record := &Record{
		UserID:         sub.UserID,
		ScheduleID:     sub.ScheduleID,
		Point:          sub.Point,
		DistanceMeters: distance,
		Status:         status,
	}
	if err := e.store.InsertAttendance(ctx, record); err != nil {
		if stderrors.Is(err, ErrDuplicateAttendance) {
			logger.Logger.Info("Concurrent attendance submission lost the unique constraint race",
				zap.Int64("user_id", sub.UserID),
				zap.Int64("schedule_id", sub.ScheduleID),
			)
			return refused(ReasonDuplicate, MessageDuplicate), nil
		}
		return nil, fmt.Errorf("failed to insert attendance: %w", err)
	}

	rounded := geo.Round2(distance)
	return &Outcome{
		Classification: class,
		DistanceMeters: &rounded,
		Message:        message,
		Record:         record,
	}, nil
}

func refused(reason ReasonCode, message string) *Outcome {
	return &Outcome{
		Classification: ClassRefused,
		Reason:         reason,
		Message:        message,
	}
}
