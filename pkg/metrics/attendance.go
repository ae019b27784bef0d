package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "geoattend.attendance"

// AttendanceMetrics 考勤判定相关指标
type AttendanceMetrics struct {
	SubmissionsTotal   metric.Int64Counter
	SubmitDuration     metric.Float64Histogram
	DistanceMeters     metric.Float64Histogram
	EventPublishErrors metric.Int64Counter
}

var (
	attendanceMetrics *AttendanceMetrics
	metricsOnce       sync.Once
)

// 全局 MeterProvider 在 InitOpenTelemetry 之后才替换，instrument 首次使用时再创建
func get() *AttendanceMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter(meterName)
		m := &AttendanceMetrics{}

		m.SubmissionsTotal, _ = meter.Int64Counter(
			"attendance_submissions_total",
			metric.WithDescription("Attendance submissions by classification and reason"),
			metric.WithUnit("{submission}"),
		)
		m.SubmitDuration, _ = meter.Float64Histogram(
			"attendance_submit_duration_seconds",
			metric.WithDescription("Time spent evaluating and persisting a submission"),
			metric.WithUnit("s"),
		)
		m.DistanceMeters, _ = meter.Float64Histogram(
			"attendance_distance_meters",
			metric.WithDescription("Distance between submitted position and location center"),
			metric.WithUnit("m"),
			metric.WithExplicitBucketBoundaries(10, 25, 50, 100, 200, 500, 1000, 5000, 20000),
		)
		m.EventPublishErrors, _ = meter.Int64Counter(
			"attendance_event_publish_errors_total",
			metric.WithDescription("Attendance events that could not be published"),
			metric.WithUnit("{error}"),
		)

		attendanceMetrics = m
	})
	return attendanceMetrics
}

// RecordSubmission 记录一次提交的判定结果；reason 为空表示未被拒绝
func RecordSubmission(ctx context.Context, classification, reason string, duration time.Duration) {
	m := get()
	attrs := metric.WithAttributes(
		attribute.String("classification", classification),
		attribute.String("reason", reason),
	)
	if m.SubmissionsTotal != nil {
		m.SubmissionsTotal.Add(ctx, 1, attrs)
	}
	if m.SubmitDuration != nil {
		m.SubmitDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordDistance 记录写入记录的距离
func RecordDistance(ctx context.Context, status string, meters float64) {
	m := get()
	if m.DistanceMeters != nil {
		m.DistanceMeters.Record(ctx, meters, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordPublishError(ctx context.Context) {
	m := get()
	if m.EventPublishErrors != nil {
		m.EventPublishErrors.Add(ctx, 1)
	}
}
