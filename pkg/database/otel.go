package database

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	instanceSpanKey  = "otel:span"
	instanceStartKey = "otel:start_time"
)

var (
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
	metricsOnce     sync.Once

	sensitiveSQL = regexp.MustCompile(`(password_hash|password|token|secret)\s*=\s*'[^']*'`)
)

// initMetrics 全局 MeterProvider 在 otel 初始化后才替换，这里用全局代理 meter 创建
func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("geoattend.gorm")
		dbQueriesTotal, _ = meter.Int64Counter(
			"db.queries.total",
			metric.WithDescription("Total number of database queries"),
			metric.WithUnit("{query}"),
		)
		dbQueryDuration, _ = meter.Float64Histogram(
			"db.query.duration",
			metric.WithDescription("Database query duration"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
		)
	})
}

// PluginConfig 插件配置
type PluginConfig struct {
	ServiceName   string
	EnableMetrics bool
	MaxSQLLength  int
}

// DefaultPluginConfig 默认不记录 SQL 参数
func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		ServiceName:   "geoattend",
		EnableMetrics: true,
		MaxSQLLength:  500,
	}
}

// OTELPlugin GORM OpenTelemetry 插件
type OTELPlugin struct {
	tracer trace.Tracer
	config PluginConfig
}

func NewOTELPlugin(config PluginConfig) *OTELPlugin {
	if config.ServiceName == "" {
		config.ServiceName = "geoattend"
	}
	if config.MaxSQLLength <= 0 {
		config.MaxSQLLength = 500
	}
	initMetrics()

	return &OTELPlugin{
		tracer: otel.Tracer(config.ServiceName + ".gorm"),
		config: config,
	}
}

// Name 实现 gorm.Plugin 接口
func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

// Initialize 注册回调
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	register := []struct {
		before func(string) error
		after  func(string) error
		name   string
	}{
		{name: "query", before: wrap(cb.Query().Before("gorm:query"), p.before), after: wrap(cb.Query().After("gorm:query"), p.after)},
		{name: "create", before: wrap(cb.Create().Before("gorm:create"), p.before), after: wrap(cb.Create().After("gorm:create"), p.after)},
		{name: "update", before: wrap(cb.Update().Before("gorm:update"), p.before), after: wrap(cb.Update().After("gorm:update"), p.after)},
		{name: "delete", before: wrap(cb.Delete().Before("gorm:delete"), p.before), after: wrap(cb.Delete().After("gorm:delete"), p.after)},
		{name: "row", before: wrap(cb.Row().Before("gorm:row"), p.before), after: wrap(cb.Row().After("gorm:row"), p.after)},
		{name: "raw", before: wrap(cb.Raw().Before("gorm:raw"), p.before), after: wrap(cb.Raw().After("gorm:raw"), p.after)},
	}

	for _, r := range register {
		if err := r.before("otel:before_" + r.name); err != nil {
			return err
		}
		if err := r.after("otel:after_" + r.name); err != nil {
			return err
		}
	}
	return nil
}

type callbackRegisterer interface {
	Register(name string, fn func(*gorm.DB)) error
}

func wrap(r callbackRegisterer, fn func(*gorm.DB)) func(string) error {
	return func(name string) error {
		return r.Register(name, fn)
	}
}

func (p *OTELPlugin) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := p.tracer.Start(ctx, "db."+tableOf(db),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			attribute.String("db.table", tableOf(db)),
		),
	)

	db.InstanceSet(instanceStartKey, time.Now())
	db.InstanceSet(instanceSpanKey, span)
	db.Statement.Context = ctx
}

func (p *OTELPlugin) after(db *gorm.DB) {
	spanVal, ok := db.InstanceGet(instanceSpanKey)
	if !ok {
		return
	}
	span, ok := spanVal.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	operation := operationOf(db.Statement.SQL.String())
	span.SetName(operation)
	span.SetAttributes(
		semconv.DBStatement(p.sanitizeSQL(db.Statement.SQL.String())),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)

	status := "success"
	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case stderrors.Is(db.Error, gorm.ErrRecordNotFound):
		span.SetStatus(codes.Ok, "record not found")
	default:
		status = "error"
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if !p.config.EnableMetrics {
		return
	}
	startVal, ok := db.InstanceGet(instanceStartKey)
	if !ok {
		return
	}
	start, ok := startVal.(time.Time)
	if !ok {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.status", status),
	)
	ctx := db.Statement.Context
	dbQueriesTotal.Add(ctx, 1, attrs)
	dbQueryDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}

func tableOf(db *gorm.DB) string {
	if db.Statement.Table != "" {
		return db.Statement.Table
	}
	return "unknown"
}

func operationOf(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return "db." + strings.ToLower(op)
		}
	}
	if sql == "" {
		return "db.unknown"
	}
	return "db.query"
}

// sanitizeSQL 截断并隐藏敏感字段
func (p *OTELPlugin) sanitizeSQL(sql string) string {
	if len(sql) > p.config.MaxSQLLength {
		sql = sql[:p.config.MaxSQLLength] + "..."
	}
	return sensitiveSQL.ReplaceAllString(sql, "$1='***'")
}

// WithDefaultOTELPlugin 使用默认配置添加 OpenTelemetry 插件
func WithDefaultOTELPlugin(db *gorm.DB, serviceName string) error {
	config := DefaultPluginConfig()
	config.ServiceName = serviceName
	return db.Use(NewOTELPlugin(config))
}
