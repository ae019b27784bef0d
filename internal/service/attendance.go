package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"GeoAttend/internal/attendance"
	"GeoAttend/internal/model"
	"GeoAttend/internal/model/dto"
	"GeoAttend/internal/repository"
	pkgerrors "GeoAttend/pkg/errors"
	"GeoAttend/pkg/geo"
	"GeoAttend/pkg/logger"
	"GeoAttend/pkg/metrics"
)

const (
	tracerName     = "geoattend.attendance"
	publishTimeout = 3 * time.Second
	dateLayout     = "2006-01-02"
)

var attendanceService *AttendanceService

// Attendance 返回全局考勤服务，需先调用 Init
func Attendance() *AttendanceService {
	return attendanceService
}

// SetAttendance 替换全局考勤服务，测试中注入
func SetAttendance(s *AttendanceService) {
	attendanceService = s
}

// AttendanceReader 历史、报表与统计查询
type AttendanceReader interface {
	History(ctx context.Context, userID int64, page, perPage int) ([]repository.HistoryRow, int64, error)
	Report(ctx context.Context, filter attendance.ReportFilter) ([]repository.ReportRow, error)
	CountBySchedule(ctx context.Context, scheduleID int64) (map[string]int64, error)
}

// TallyCache 事件消费者维护的计数。事件发布失败时失效，读取方回源数据库
type TallyCache interface {
	Get(ctx context.Context, scheduleID int64) (map[string]int64, error)
	Invalidate(ctx context.Context, scheduleID int64) error
}

// EventPublisher 发布考勤写入事件
type EventPublisher func(ctx context.Context, msg model.AttendanceRecordedMessage) error

type AttendanceService struct {
	engine   *attendance.Engine
	store    attendance.Store
	reader   AttendanceReader
	tally    TallyCache
	publish  EventPublisher
	location *time.Location
	now      func() time.Time
}

// AttendanceDeps 构造考勤服务所需的协作者，Tally 与 Publish 可为 nil
type AttendanceDeps struct {
	Engine   *attendance.Engine
	Store    attendance.Store
	Reader   AttendanceReader
	Tally    TallyCache
	Publish  EventPublisher
	Location *time.Location
	Now      func() time.Time
}

func NewAttendanceService(deps AttendanceDeps) *AttendanceService {
	s := &AttendanceService{
		engine:   deps.Engine,
		store:    deps.Store,
		reader:   deps.Reader,
		tally:    deps.Tally,
		publish:  deps.Publish,
		location: deps.Location,
		now:      deps.Now,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Engine 判定引擎，供课程安排服务计算 is_active
func (s *AttendanceService) Engine() *attendance.Engine {
	return s.engine
}

// Submit 判定并记录一次考勤提交
func (s *AttendanceService) Submit(ctx context.Context, userID int64, req dto.SubmitAttendanceRequest) (*dto.AttendanceResult, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, pkgerrors.InvalidInput.WithMessage("latitude and longitude are required")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "attendance.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("attendance.user_id", userID),
		attribute.Int64("attendance.schedule_id", req.ScheduleID),
	)

	start := time.Now()
	outcome, err := s.engine.Evaluate(ctx, attendance.Submission{
		UserID:     userID,
		ScheduleID: req.ScheduleID,
		Point:      geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordSubmission(ctx, string(outcome.Classification), string(outcome.Reason), time.Since(start))
	span.SetAttributes(
		attribute.String("attendance.classification", string(outcome.Classification)),
		attribute.String("attendance.reason", string(outcome.Reason)),
	)

	if outcome.Persisted() {
		record := outcome.Record
		metrics.RecordDistance(ctx, string(record.Status), record.DistanceMeters)

		logger.Logger.Info("Attendance recorded",
			zap.Int64("record_id", record.ID),
			zap.Int64("user_id", userID),
			zap.Int64("schedule_id", req.ScheduleID),
			zap.String("status", string(record.Status)),
			zap.Float64("distance_meters", record.DistanceMeters),
		)
		s.publishRecorded(ctx, record)
	}

	return toAttendanceResult(outcome), nil
}

// publishRecorded 事件发布失败只记录日志，不影响本次提交
func (s *AttendanceService) publishRecorded(ctx context.Context, record *attendance.Record) {
	if s.publish == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.publish(pubCtx, model.AttendanceRecordedMessage{
		Status:         string(record.Status),
		OccurredAt:     record.CreatedAt.UTC().Format(time.RFC3339Nano),
		RecordID:       record.ID,
		UserID:         record.UserID,
		ScheduleID:     record.ScheduleID,
		DistanceMeters: record.DistanceMeters,
	})
	if err == nil {
		return
	}

	metrics.RecordPublishError(ctx)
	logger.Logger.Warn("Failed to publish attendance recorded event",
		zap.Int64("record_id", record.ID),
		zap.Error(err),
	)

	// 消费者看不到这条记录，删掉计数让统计回源数据库，直到下一次重算
	if s.tally == nil {
		return
	}
	if err := s.tally.Invalidate(pubCtx, record.ScheduleID); err != nil {
		logger.Logger.Error("Failed to invalidate attendance tally, summary may undercount until the next recount",
			zap.Int64("schedule_id", record.ScheduleID),
			zap.Error(err),
		)
	}
}

func toAttendanceResult(o *attendance.Outcome) *dto.AttendanceResult {
	result := &dto.AttendanceResult{
		Classification: string(o.Classification),
		DistanceMeters: o.DistanceMeters,
		Message:        o.Message,
	}
	if o.Reason != "" {
		reason := string(o.Reason)
		result.ReasonCode = &reason
	}
	if o.Record != nil {
		status := string(o.Record.Status)
		id := strconv.FormatInt(o.Record.ID, 10)
		result.Status = &status
		result.RecordID = &id
	}
	return result
}

// History 当前用户的考勤历史，按时间倒序分页
func (s *AttendanceService) History(ctx context.Context, userID int64, q dto.PageQuery) (*dto.AttendanceHistoryResponse, error) {
	page, perPage := repository.NormalizePage(q.Page, q.PerPage)

	rows, total, err := s.reader.History(ctx, userID, page, perPage)
	if err != nil {
		logger.Logger.Error("Failed to load attendance history", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	items := make([]dto.AttendanceHistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.AttendanceHistoryItem{
			CreatedAt:      row.CreatedAt,
			StartTime:      row.StartTime,
			EndTime:        row.EndTime,
			ID:             strconv.FormatInt(row.ID, 10),
			ScheduleID:     strconv.FormatInt(row.ScheduleID, 10),
			CourseName:     row.CourseName,
			CourseCode:     row.CourseCode,
			LocationName:   row.LocationName,
			Status:         row.Status,
			Latitude:       row.Latitude,
			Longitude:      row.Longitude,
			DistanceMeters: geo.Round2(row.DistanceMeters),
		})
	}

	return &dto.AttendanceHistoryResponse{
		Items: items,
		Meta: dto.PageMeta{
			CurrentPage: page,
			LastPage:    repository.LastPage(total, perPage),
			PerPage:     perPage,
			Total:       total,
		},
	}, nil
}

// ParseReportFilter 解析报表查询参数，日期按配置时区切日
func ParseReportFilter(q dto.ReportQuery, loc *time.Location) (attendance.ReportFilter, error) {
	filter := attendance.ReportFilter{Location: loc}

	parseDate := func(field, value string) (*time.Time, error) {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, nil
		}
		t, err := time.ParseInLocation(dateLayout, value, loc)
		if err != nil {
			return nil, pkgerrors.InvalidInput.WithMessage(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
		}
		return &t, nil
	}

	var err error
	if filter.From, err = parseDate("start_date", q.StartDate); err != nil {
		return filter, err
	}
	if filter.To, err = parseDate("end_date", q.EndDate); err != nil {
		return filter, err
	}

	if raw := strings.TrimSpace(q.ScheduleID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, pkgerrors.InvalidInput.WithMessage("schedule_id must be a positive integer")
		}
		filter.ScheduleID = &id
	}

	return filter, filter.Validate()
}

// Report 管理员报表
func (s *AttendanceService) Report(ctx context.Context, q dto.ReportQuery) ([]dto.AttendanceReportItem, error) {
	filter, err := ParseReportFilter(q, s.location)
	if err != nil {
		return nil, err
	}

	rows, err := s.reader.Report(ctx, filter)
	if err != nil {
		logger.Logger.Error("Failed to load attendance report", zap.Error(err))
		return nil, err
	}

	items := make([]dto.AttendanceReportItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.AttendanceReportItem{
			CreatedAt:      row.CreatedAt,
			ID:             strconv.FormatInt(row.ID, 10),
			UserID:         strconv.FormatInt(row.UserID, 10),
			UserName:       row.UserName,
			IdentityNumber: row.IdentityNumber,
			ScheduleID:     strconv.FormatInt(row.ScheduleID, 10),
			CourseName:     row.CourseName,
			LocationName:   row.LocationName,
			Status:         row.Status,
			Latitude:       row.Latitude,
			Longitude:      row.Longitude,
			DistanceMeters: geo.Round2(row.DistanceMeters),
		})
	}
	return items, nil
}

// Summary 课程安排的考勤统计。优先读事件消费者从数据库重算的计数，计数缺失时回源数据库
func (s *AttendanceService) Summary(ctx context.Context, rawScheduleID string) (*dto.AttendanceSummaryResponse, error) {
	scheduleID, err := strconv.ParseInt(strings.TrimSpace(rawScheduleID), 10, 64)
	if err != nil || scheduleID <= 0 {
		return nil, pkgerrors.InvalidInput.WithMessage("schedule_id must be a positive integer")
	}

	if _, err := s.store.FindSchedule(ctx, scheduleID); err != nil {
		if stderrors.Is(err, attendance.ErrScheduleNotFound) {
			return nil, pkgerrors.ScheduleNotFound
		}
		return nil, fmt.Errorf("failed to resolve schedule %d: %w", scheduleID, err)
	}

	var counts map[string]int64
	if s.tally != nil {
		counts, err = s.tally.Get(ctx, scheduleID)
		if err != nil {
			logger.Logger.Warn("Failed to read attendance tally, falling back to database",
				zap.Int64("schedule_id", scheduleID),
				zap.Error(err),
			)
			counts = nil
		}
	}
	if len(counts) == 0 {
		counts, err = s.reader.CountBySchedule(ctx, scheduleID)
		if err != nil {
			return nil, fmt.Errorf("failed to count attendance: %w", err)
		}
	}

	present := counts[string(attendance.StatusPresent)]
	rejected := counts[string(attendance.StatusRejected)]
	return &dto.AttendanceSummaryResponse{
		ScheduleID: strconv.FormatInt(scheduleID, 10),
		Present:    present,
		Rejected:   rejected,
		Total:      present + rejected,
	}, nil
}
