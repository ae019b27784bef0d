package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"GeoAttend/config"
	"GeoAttend/pkg/logger"
)

// 考勤事件拓扑
const (
	AttendanceExchange      = "attendance.events"
	AttendanceRecordedKey   = "attendance.recorded"
	AttendanceTallyQueue    = "attendance.recorded.tally"
	attendanceDeadLetterExc = "attendance.events.dlx"
	attendanceDeadLetterQ   = "attendance.recorded.dead"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

func Init() error {
	connOnce.Do(func() {
		c, err := amqp.Dial(config.Cfg.GetRabbitMQURL())
		if err != nil {
			connErr = fmt.Errorf("failed to dial RabbitMQ: %w", err)
			return
		}

		if err := declareTopology(c); err != nil {
			_ = c.Close()
			connErr = err
			return
		}

		conn = c
		logger.Logger.Info("RabbitMQ connected",
			zap.String("exchange", AttendanceExchange),
			zap.String("queue", AttendanceTallyQueue),
		)
	})

	return connErr
}

// declareTopology 声明交换机、队列与死信队列，重复声明是幂等的
func declareTopology(c *amqp.Connection) error {
	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(AttendanceExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", AttendanceExchange, err)
	}
	if err := ch.ExchangeDeclare(attendanceDeadLetterExc, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", attendanceDeadLetterExc, err)
	}

	if _, err := ch.QueueDeclare(attendanceDeadLetterQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", attendanceDeadLetterQ, err)
	}
	if err := ch.QueueBind(attendanceDeadLetterQ, "", attendanceDeadLetterExc, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", attendanceDeadLetterQ, err)
	}

	_, err = ch.QueueDeclare(AttendanceTallyQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": attendanceDeadLetterExc,
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", AttendanceTallyQueue, err)
	}
	if err := ch.QueueBind(AttendanceTallyQueue, AttendanceRecordedKey, AttendanceExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", AttendanceTallyQueue, err)
	}

	return nil
}

// Connection 返回全局连接，未初始化时为 nil
func Connection() *amqp.Connection {
	return conn
}

func Close(ctx context.Context) error {
	pubMutex.Lock()
	if publisherCh != nil {
		_ = publisherCh.Close()
		publisherCh = nil
	}
	pubMutex.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
