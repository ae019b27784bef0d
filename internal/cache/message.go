package cache

import (
	"context"
	"fmt"
	"time"

	"GeoAttend/storage/redis"
)

// 消息幂等标记，RabbitMQ 至少一次投递，消费者依此跳过重复消息
const (
	messageProcessedPrefix = "message:processed"

	processingTTL = 24 * time.Hour
	processedTTL  = 48 * time.Hour
)

// TryMarkMessageProcessing 原子性地标记消息正在处理（SETNX）
// 返回 true 表示首次处理，false 表示重复消息或正在处理
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processingTTL
	}

	result, err := redis.Client().SetNX(ctx, key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return result, nil
}

// UnmarkMessageProcessing 处理失败时清除标记，允许重投后重试
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	if err := redis.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to unmark message processing: %w", err)
	}
	return nil
}

// MarkMessageProcessed 标记消息处理完成
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	return redis.Client().Set(ctx, key, "done", ttl).Err()
}

// MessageMarker 把包级函数适配为消费者使用的幂等接口
type MessageMarker struct{}

func (MessageMarker) TryMarkProcessing(ctx context.Context, messageID string) (bool, error) {
	return TryMarkMessageProcessing(ctx, messageID, processingTTL)
}

func (MessageMarker) Unmark(ctx context.Context, messageID string) error {
	return UnmarkMessageProcessing(ctx, messageID)
}

func (MessageMarker) MarkProcessed(ctx context.Context, messageID string) error {
	return MarkMessageProcessed(ctx, messageID, processedTTL)
}
