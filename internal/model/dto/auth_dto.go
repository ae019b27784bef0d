package dto

// ========== Auth 相关 DTO ==========

// LoginRequest 学号/工号 + 密码登录
type LoginRequest struct {
	IdentityNumber string `json:"identity_number" validate:"required,max=64"`
	Password       string `json:"password" validate:"required,max=128"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserSnapshot `json:"user"`
}

// UserSnapshot 登录时返回的用户快照
type UserSnapshot struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IdentityNumber string `json:"identity_number"`
	Email          string `json:"email"`
	Role           string `json:"role"`
}
