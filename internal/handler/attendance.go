package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/response"
)

// SubmitAttendance 提交考勤。accepted / out_of_range 返回 200，refused 返回 422
// POST /v1/attendance
func SubmitAttendance(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUserID(ctx, c)
	if !ok {
		return
	}

	var req dto.SubmitAttendanceRequest
	if err := c.Bind(&req); err != nil {
		// 非数字的 id 或坐标同样视为非法输入
		response.Error(ctx, c, errors.InvalidInput.WithMessage("schedule_id, latitude and longitude must be numbers"))
		return
	}

	result, err := service.Attendance().Submit(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if result.Classification == string(attendance.ClassRefused) {
		response.Unprocessable(ctx, c, result)
		return
	}
	response.Success(ctx, c, result)
}

// GetAttendanceHistory 当前用户的考勤历史
// GET /v1/attendance/history
func GetAttendanceHistory(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUserID(ctx, c)
	if !ok {
		return
	}

	var q dto.PageQuery
	if err := c.BindQuery(&q); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Attendance().History(ctx, userID, q)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, result.Items, map[string]interface{}{
		"current_page": result.Meta.CurrentPage,
		"last_page":    result.Meta.LastPage,
		"per_page":     result.Meta.PerPage,
		"total":        result.Meta.Total,
	})
}
