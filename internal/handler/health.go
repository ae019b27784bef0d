package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"golang.org/x/sync/errgroup"

	"GeoAttend/pkg/response"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck 单个依赖的探活函数
type HealthCheck func(ctx context.Context) error

var (
	healthMu     sync.RWMutex
	healthChecks = map[string]HealthCheck{}
)

// RegisterHealthCheck 启动时注册依赖探活，重名覆盖
func RegisterHealthCheck(name string, check HealthCheck) {
	healthMu.Lock()
	defer healthMu.Unlock()
	healthChecks[name] = check
}

func snapshotChecks() map[string]HealthCheck {
	healthMu.RLock()
	defer healthMu.RUnlock()
	out := make(map[string]HealthCheck, len(healthChecks))
	for name, check := range healthChecks {
		out[name] = check
	}
	return out
}

// Health 并发探测已注册的依赖，任一失败返回 503
// GET /healthz
func Health(ctx context.Context, c *app.RequestContext) {
	checks := snapshotChecks()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]string, len(checks))
	healthy := true

	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			status := "ok"
			if err := check(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[name] = status
			if status != "ok" {
				healthy = false
			}
			return nil
		})
	}
	_ = g.Wait()

	body := map[string]interface{}{"status": "ok", "checks": results}
	if !healthy {
		body["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, response.SuccessResponse{Data: body})
		return
	}
	response.Success(ctx, c, body)
}
