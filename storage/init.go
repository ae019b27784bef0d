package storage

import (
	"context"
	"fmt"

	"GeoAttend/storage/database"
	"GeoAttend/storage/mq"
	"GeoAttend/storage/redis"
)

// component 一个外部连接：初始化按切片顺序，关闭按逆序
type component struct {
	name  string
	init  func() error
	close func(context.Context) error
}

// 数据库 -> Redis -> MQ；关闭时先停 MQ，最后关数据库
var components = []component{
	{name: "database", init: database.Init, close: database.Close},
	{name: "redis", init: redis.Init, close: redis.Close},
	{name: "message queue", init: mq.Init, close: mq.Close},
}

// Init 统一初始化存储层，任一组件失败时关闭已经打开的组件
func Init() error {
	for i, c := range components {
		if err := c.init(); err != nil {
			closeAll(components[:i])
			return fmt.Errorf("failed to initialize %s: %w", c.name, err)
		}
	}
	return nil
}
