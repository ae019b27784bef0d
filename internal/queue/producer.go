package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"GeoAttend/internal/model"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/snowflake"
	"GeoAttend/storage/mq"
)

// PublishAttendanceRecorded 发布考勤记录写入事件
func PublishAttendanceRecorded(ctx context.Context, msg model.AttendanceRecordedMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("record_id", msg.RecordID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("att_recorded_%d", id)
	}

	err := mq.PublishMessage(ctx, mq.AttendanceExchange, mq.AttendanceRecordedKey, msg.MessageID, msg)
	if err != nil {
		logger.Logger.Error("Failed to publish attendance recorded message",
			zap.String("message_id", msg.MessageID),
			zap.Int64("record_id", msg.RecordID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Debug("Published attendance recorded message",
		zap.String("message_id", msg.MessageID),
		zap.Int64("record_id", msg.RecordID),
		zap.Int64("schedule_id", msg.ScheduleID),
		zap.String("status", msg.Status),
	)

	return nil
}
