package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/service"
	"GeoAttend/pkg/response"
)

// GetTodaySchedules 今天的课程安排，带 is_active
// GET /v1/schedules/today
func GetTodaySchedules(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUserID(ctx, c)
	if !ok {
		return
	}

	items, err := service.Schedule().TodaySchedules(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, items)
}
