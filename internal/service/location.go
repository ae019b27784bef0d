package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"GeoAttend/internal/cache"
	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/repository"
	pkgerrors "GeoAttend/pkg/errors"
	"GeoAttend/pkg/geo"
	"GeoAttend/pkg/logger"
)

var locationService *LocationService

func Location() *LocationService {
	return locationService
}

func SetLocation(s *LocationService) {
	locationService = s
}

type LocationService struct {
	locations *repository.LocationRepository
	schedules *repository.ScheduleRepository
	cache     *cache.ScheduleCache
}

func NewLocationService(locations *repository.LocationRepository, schedules *repository.ScheduleRepository, sc *cache.ScheduleCache) *LocationService {
	return &LocationService{locations: locations, schedules: schedules, cache: sc}
}

func locationFromRequest(req dto.LocationRequest) (*model.Location, error) {
	if req.Latitude == nil || req.Longitude == nil || req.RadiusMeters == nil {
		return nil, pkgerrors.InvalidInput.WithMessage("latitude, longitude and radius_meters are required")
	}
	p := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if *req.RadiusMeters <= 0 {
		return nil, pkgerrors.InvalidInput.WithMessage("radius_meters must be greater than 0")
	}
	return &model.Location{
		Name:         strings.TrimSpace(req.Name),
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		RadiusMeters: *req.RadiusMeters,
	}, nil
}

func toLocationItem(l *model.Location) dto.LocationItem {
	return dto.LocationItem{
		ID:           strconv.FormatInt(l.ID, 10),
		Name:         l.Name,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		RadiusMeters: l.RadiusMeters,
	}
}

func (s *LocationService) Create(ctx context.Context, req dto.LocationRequest) (*dto.LocationItem, error) {
	location, err := locationFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.locations.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	item := toLocationItem(location)
	return &item, nil
}

// Update 修改地点后失效引用它的课程安排缓存
func (s *LocationService) Update(ctx context.Context, id int64, req dto.LocationRequest) (*dto.LocationItem, error) {
	location, err := locationFromRequest(req)
	if err != nil {
		return nil, err
	}
	location.ID = id

	if err := s.locations.Update(ctx, location); err != nil {
		if repository.IsNotFound(err) {
			return nil, pkgerrors.LocationNotFound
		}
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	if s.cache != nil {
		ids, err := s.schedules.IDsByLocation(ctx, id)
		if err != nil {
			logger.Logger.Warn("Failed to list schedules for cache invalidation", zap.Int64("location_id", id), zap.Error(err))
		} else {
			s.cache.Invalidate(ctx, ids...)
		}
	}

	logger.Logger.Info("Location updated",
		zap.Int64("location_id", id),
		zap.Float64("radius_meters", location.RadiusMeters),
	)

	item := toLocationItem(location)
	return &item, nil
}

func (s *LocationService) List(ctx context.Context) ([]dto.LocationItem, error) {
	locations, err := s.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationItem, 0, len(locations))
	for i := range locations {
		items = append(items, toLocationItem(&locations[i]))
	}
	return items, nil
}
