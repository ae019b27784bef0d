package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/response"
)

// Login 学号/工号 + 密码登录
// POST /v1/login
func Login(ctx context.Context, c *app.RequestContext) {
	var req dto.LoginRequest
	if !bindAndValidate(ctx, c, &req) {
		return
	}

	result, err := service.Auth().Login(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, result)
}

