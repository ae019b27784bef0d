package service

import (
	"context"
	stderrors "errors"
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
)

var userService *UserService

func User() *UserService {
	return userService
}

func SetUser(s *UserService) {
	userService = s
}

// ClassMembership 用户所属班级
type ClassMembership interface {
	ClassesOfUser(ctx context.Context, userID int64) ([]model.ClassRoom, error)
}

type UserService struct {
	users   UserStore
	classes ClassMembership
	cost    int
}

func NewUserService(users UserStore, classes ClassMembership) *UserService {
	return &UserService{users: users, classes: classes, cost: bcrypt.DefaultCost}
}

// GetProfile 当前用户信息及所属班级
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.UserProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, pkgerrors.UserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	classes, err := s.classes.ClassesOfUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}

	briefs := make([]dto.ClassBrief, 0, len(classes))
	for _, c := range classes {
		briefs = append(briefs, dto.ClassBrief{
			ID:           strconv.FormatInt(c.ID, 10),
			Name:         c.Name,
			AcademicYear: c.AcademicYear,
		})
	}

	return &dto.UserProfileResponse{
		UserSnapshot: toUserSnapshot(user),
		Classes:      briefs,
	}, nil
}

// CreateUser 管理员创建用户，角色缺省为 student
func (s *UserService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserSnapshot, error) {
	role := model.UserRole(req.Role)
	if role == "" {
		role = model.UserRoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:           strings.TrimSpace(req.Name),
		IdentityNumber: strings.TrimSpace(req.IdentityNumber),
		Email:          strings.TrimSpace(req.Email),
		PasswordHash:   string(hash),
		Role:           role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, pkgerrors.UserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	snapshot := toUserSnapshot(user)
	return &snapshot, nil
}

// EnsureAdmin 启动时确保管理员账号存在，已存在时不修改
func (s *UserService) EnsureAdmin(ctx context.Context, identityNumber, password string) error {
	if identityNumber == "" {
		return nil
	}

	_, err := s.users.GetByIdentityNumber(ctx, identityNumber)
	if err == nil {
		return nil
	}
	if !repository.IsNotFound(err) {
		return fmt.Errorf("failed to query admin user: %w", err)
	}

	_, err = s.CreateUser(ctx, dto.CreateUserRequest{
		Name:           "Administrator",
		IdentityNumber: identityNumber,
		Password:       password,
		Role:           string(model.UserRoleAdmin),
	})
	if err != nil && !stderrors.Is(err, pkgerrors.UserAlreadyExists) {
		return err
	}

	logger.Logger.Info("Bootstrap admin ensured", zap.String("identity_number", identityNumber))
	return nil
}
