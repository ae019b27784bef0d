package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/cache"
	"GeoAttend/internal/model"
	"GeoAttend/internal/repository"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
	"GeoAttend/storage/database"
	"GeoAttend/storage/mq"
)

// MessageMarker 消息幂等标记
type MessageMarker interface {
	TryMarkProcessing(ctx context.Context, messageID string) (bool, error)
	Unmark(ctx context.Context, messageID string) error
	MarkProcessed(ctx context.Context, messageID string) error
}

// TallyCounter 从主库统计课程安排的考勤记录
type TallyCounter interface {
	RecountBySchedule(ctx context.Context, scheduleID int64) (map[string]int64, error)
}

// TallyWriter 课程安排的考勤计数缓存
type TallyWriter interface {
	Set(ctx context.Context, scheduleID int64, counts map[string]int64) error
}

// TallyHandler 消费 attendance.recorded 事件，按课程安排从数据库重算计数并覆盖缓存。
// 重算是幂等的，丢失的事件会在同一课程安排的下一个事件里被补上
type TallyHandler struct {
	marker  MessageMarker
	counter TallyCounter
	tally   TallyWriter
}

func NewTallyHandler(marker MessageMarker, counter TallyCounter, tally TallyWriter) *TallyHandler {
	return &TallyHandler{marker: marker, counter: counter, tally: tally}
}

func (h *TallyHandler) Handle(ctx context.Context, body []byte) error {
	var msg model.AttendanceRecordedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// 格式错误的消息重试也无法成功
		logger.Logger.Error("Dropping malformed attendance recorded message", zap.Error(err))
		return &errors.SkipMessageError{Reason: fmt.Sprintf("malformed message: %v", err)}
	}

	switch attendance.Status(msg.Status) {
	case attendance.StatusPresent, attendance.StatusRejected:
	default:
		logger.Logger.Warn("Dropping attendance message with unknown status",
			zap.String("message_id", msg.MessageID),
			zap.String("status", msg.Status),
		)
		return &errors.SkipMessageError{Reason: fmt.Sprintf("unknown status %q", msg.Status)}
	}

	if msg.MessageID != "" {
		first, err := h.marker.TryMarkProcessing(ctx, msg.MessageID)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			// 检查失败时继续处理，可能重复计数
		} else if !first {
			logger.Logger.Info("Message already processed or being processed, skipping",
				zap.String("message_id", msg.MessageID),
			)
			return &errors.SkipMessageError{Reason: fmt.Sprintf("Message %s already processed", msg.MessageID)}
		}
	}

	counts, err := h.counter.RecountBySchedule(ctx, msg.ScheduleID)
	if err == nil {
		err = h.tally.Set(ctx, msg.ScheduleID, counts)
	}
	if err != nil {
		if msg.MessageID != "" {
			if unmarkErr := h.marker.Unmark(ctx, msg.MessageID); unmarkErr != nil {
				logger.Logger.Warn("Failed to unmark message", zap.String("message_id", msg.MessageID), zap.Error(unmarkErr))
			}
		}
		return fmt.Errorf("failed to update attendance tally: %w", err)
	}

	if msg.MessageID != "" {
		if err := h.marker.MarkProcessed(ctx, msg.MessageID); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
	}

	logger.Logger.Debug("Attendance tally updated",
		zap.String("message_id", msg.MessageID),
		zap.Int64("schedule_id", msg.ScheduleID),
		zap.Int64("present", counts[string(attendance.StatusPresent)]),
		zap.Int64("rejected", counts[string(attendance.StatusRejected)]),
	)
	return nil
}

// StartAttendanceTallyConsumer 启动考勤计数消费者，阻塞直到 ctx 取消
func StartAttendanceTallyConsumer(ctx context.Context) error {
	db := database.DB()
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}
	handler := NewTallyHandler(cache.MessageMarker{}, repository.NewAttendanceRepository(db), cache.TallyStore{})

	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         mq.AttendanceTallyQueue,
		ConsumerTag:   "attendance_tally_consumer",
		PrefetchCount: 50,
		Handler:       handler.Handle,
		Requeue:       true,
	})
}

// StartAllConsumers 启动所有消费者，任一消费者异常退出时取消其余消费者并返回错误
func StartAllConsumers(ctx context.Context) error {
	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"attendance_tally", StartAttendanceTallyConsumer},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		g.Go(func() error {
			logger.Logger.Info("Starting consumer", zap.String("consumer_name", c.name))

			if err := c.consumer(gctx); err != nil {
				logger.Logger.Error("Consumer exited with error",
					zap.String("consumer_name", c.name),
					zap.Error(err),
				)
				return fmt.Errorf("consumer %s: %w", c.name, err)
			}
			return nil
		})
	}

	return g.Wait()
}
