package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/repository"
	pkgerrors "GeoAttend/pkg/errors"
)

var courseService *CourseService

func Course() *CourseService {
	return courseService
}

func SetCourse(s *CourseService) {
	courseService = s
}

type CourseService struct {
	courses *repository.CourseRepository
}

func NewCourseService(courses *repository.CourseRepository) *CourseService {
	return &CourseService{courses: courses}
}

func toCourseItem(c *model.Course) dto.CourseItem {
	return dto.CourseItem{
		ID:           strconv.FormatInt(c.ID, 10),
		CourseName:   c.CourseName,
		CourseCode:   c.CourseCode,
		LecturerName: c.LecturerName,
	}
}

func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*dto.CourseItem, error) {
	course := &model.Course{
		CourseName:   strings.TrimSpace(req.CourseName),
		CourseCode:   strings.TrimSpace(req.CourseCode),
		LecturerName: strings.TrimSpace(req.LecturerName),
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, pkgerrors.CourseAlreadyExists
		}
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	item := toCourseItem(course)
	return &item, nil
}

func (s *CourseService) List(ctx context.Context) ([]dto.CourseItem, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CourseItem, 0, len(courses))
	for i := range courses {
		items = append(items, toCourseItem(&courses[i]))
	}
	return items, nil
}
