package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/repository"
	pkgerrors "GeoAttend/pkg/errors"
	"GeoAttend/pkg/logger"
)

var classService *ClassService

func Class() *ClassService {
	return classService
}

func SetClass(s *ClassService) {
	classService = s
}

type ClassService struct {
	classes *repository.ClassRepository
	users   *repository.UserRepository
}

func NewClassService(classes *repository.ClassRepository, users *repository.UserRepository) *ClassService {
	return &ClassService{classes: classes, users: users}
}

func toClassBrief(c *model.ClassRoom) dto.ClassBrief {
	return dto.ClassBrief{
		ID:           strconv.FormatInt(c.ID, 10),
		Name:         c.Name,
		AcademicYear: c.AcademicYear,
	}
}

func (s *ClassService) Create(ctx context.Context, req dto.CreateClassRequest) (*dto.ClassBrief, error) {
	class := &model.ClassRoom{
		Name:         strings.TrimSpace(req.Name),
		AcademicYear: strings.TrimSpace(req.AcademicYear),
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	brief := toClassBrief(class)
	return &brief, nil
}

func (s *ClassService) List(ctx context.Context) ([]dto.ClassBrief, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClassBrief, 0, len(classes))
	for i := range classes {
		items = append(items, toClassBrief(&classes[i]))
	}
	return items, nil
}

// AddMembers 批量加入班级，任一用户不存在时整体拒绝
func (s *ClassService) AddMembers(ctx context.Context, classID int64, req dto.AddClassMembersRequest) (*dto.AddClassMembersResponse, error) {
	ok, err := s.classes.Exists(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to check class: %w", err)
	}
	if !ok {
		return nil, pkgerrors.ClassNotFound
	}

	userIDs := dedupe(req.UserIDs)
	found, err := s.users.ExistingIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check users: %w", err)
	}
	if missing := difference(userIDs, found); len(missing) > 0 {
		return nil, pkgerrors.UserNotFound.WithMessage(fmt.Sprintf("Users not found: %v", missing))
	}

	added, err := s.classes.AddMembers(ctx, classID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to add class members: %w", err)
	}

	logger.Logger.Info("Class members added",
		zap.Int64("class_id", classID),
		zap.Int("requested", len(userIDs)),
		zap.Int64("added", added),
	)

	return &dto.AddClassMembersResponse{
		ClassID: strconv.FormatInt(classID, 10),
		Added:   added,
	}, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// difference 返回 want 中不在 have 里的 id，升序
func difference(want, have []int64) []int64 {
	present := make(map[int64]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	var missing []int64
	for _, id := range want {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
