package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"GeoAttend/pkg/logger"
)

const closeTimeout = 15 * time.Second

// Close 关闭所有存储连接，单个组件失败不影响其余组件
func Close() {
	closeAll(components)
}

func closeAll(cs []component) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	for i := len(cs) - 1; i >= 0; i-- {
		c := cs[i]
		if err := c.close(ctx); err != nil {
			logger.Logger.Error("Failed to close storage component", zap.String("component", c.name), zap.Error(err))
			continue
		}
		logger.Logger.Info("Storage component closed", zap.String("component", c.name))
	}
}
