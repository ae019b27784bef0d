package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/repository"
	pkgerrors "GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/token"
)

var authService *AuthService

func Auth() *AuthService {
	return authService
}

func SetAuth(s *AuthService) {
	authService = s
}

// UserStore 用户持久化
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByIdentityNumber(ctx context.Context, identityNumber string) (*model.User, error)
}

type AuthService struct {
	users UserStore
	// 用户不存在时同样做一次 bcrypt 比较，避免通过响应时间枚举账号
	dummyHash []byte
}

func NewAuthService(users UserStore) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("geoattend-dummy-password"), bcrypt.DefaultCost)
	return &AuthService{users: users, dummyHash: dummy}
}

// Login 学号/工号 + 密码登录，失败统一返回 INVALID_CREDENTIALS
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	identity := strings.TrimSpace(req.IdentityNumber)

	user, err := s.users.GetByIdentityNumber(ctx, identity)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("failed to query user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, pkgerrors.InvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Logger.Info("Login rejected", zap.Int64("user_id", user.ID))
		return nil, pkgerrors.InvalidCredentials
	}

	accessToken, refreshToken, expiresIn, err := token.GenerateTokenPair(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Logger.Info("User logged in",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		User:         toUserSnapshot(user),
	}, nil
}

func toUserSnapshot(u *model.User) dto.UserSnapshot {
	return dto.UserSnapshot{
		ID:             strconv.FormatInt(u.ID, 10),
		Name:           u.Name,
		IdentityNumber: u.IdentityNumber,
		Email:          u.Email,
		Role:           string(u.Role),
	}
}
