package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/middleware"
	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/response"
	"GeoAttend/pkg/validate"
)

// bindAndValidate 绑定请求并按 validate 标签校验，失败时已写好响应
func bindAndValidate(ctx context.Context, c *app.RequestContext, req interface{}) bool {
	if err := c.Bind(req); err != nil {
		response.BindError(ctx, c, err)
		return false
	}
	if details, err := validate.Struct(req); err != nil {
		response.ErrorWithDetails(ctx, c, err, details)
		return false
	}
	return true
}

// currentUserID 认证中间件之后一定存在，取不到按未认证处理
func currentUserID(ctx context.Context, c *app.RequestContext) (int64, bool) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return 0, false
	}
	return userID, true
}

// pathID 解析路径中的正整数 id
func pathID(ctx context.Context, c *app.RequestContext, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		response.Error(ctx, c, errors.InvalidInput.WithMessage(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
