package dto

// ========== User 相关 DTO ==========

// UserProfileResponse 当前用户信息，包含所属班级
type UserProfileResponse struct {
	UserSnapshot
	Classes []ClassBrief `json:"classes"`
}

// ClassBrief 班级摘要
type ClassBrief struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
}

// CreateUserRequest 管理员创建用户
type CreateUserRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	IdentityNumber string `json:"identity_number" validate:"required,max=64"`
	Email          string `json:"email" validate:"omitempty,email,max=255"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	Role           string `json:"role" validate:"omitempty,oneof=admin student"`
}
