package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

// 重复提交策略
const (
	DuplicatePolicyStrict    = "strict"    // 任意历史记录都阻止再次提交
	DuplicatePolicyRetryable = "retryable" // 只有 present 记录阻止再次提交
)

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"geoattend"`
	Timezone    string `env:"TIMEZONE" envDefault:"Asia/Jakarta"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"geoattend"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`
	// 只读副本，host:port 逗号分隔，历史与报表查询走副本
	PostgreSQLReplicaHosts []string `env:"POSTGRESQL_REPLICA_HOSTS" envSeparator:","`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"geo"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET"` // 必填，用于签名 JWT
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"120"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	// 考勤提交限流：窗口内最多请求数
	SubmitRateLimitMax    int `env:"SUBMIT_RATE_LIMIT_MAX" envDefault:"10"`
	SubmitRateLimitWindow int `env:"SUBMIT_RATE_LIMIT_WINDOW" envDefault:"60"` // 秒

	// 考勤判定策略
	AttendanceToleranceMinutes    int    `env:"ATTENDANCE_TOLERANCE_MINUTES" envDefault:"0"`
	AttendanceRequireEnrollment   bool   `env:"ATTENDANCE_REQUIRE_ENROLLMENT" envDefault:"false"`
	AttendanceDuplicatePolicy     string `env:"ATTENDANCE_DUPLICATE_POLICY" envDefault:"retryable"`
	AttendanceScheduleCacheMinute int    `env:"ATTENDANCE_SCHEDULE_CACHE_MINUTES" envDefault:"30"`

	// 启动时确保存在的管理员账号，留空则跳过
	AdminIdentityNumber string `env:"ADMIN_IDENTITY_NUMBER"`
	AdminPassword       string `env:"ADMIN_PASSWORD"`
}

// Load 读取 .env 与环境变量并校验，服务启动时调用一次
func Load() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	Cfg = cfg
	return nil
}

// MustLoad 同 Load，失败直接退出
func MustLoad() {
	if err := Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.AttendanceToleranceMinutes < 0 {
		return fmt.Errorf("ATTENDANCE_TOLERANCE_MINUTES must be non-negative, got %d", c.AttendanceToleranceMinutes)
	}

	c.AttendanceDuplicatePolicy = strings.ToLower(strings.TrimSpace(c.AttendanceDuplicatePolicy))
	switch c.AttendanceDuplicatePolicy {
	case DuplicatePolicyStrict, DuplicatePolicyRetryable:
	default:
		return fmt.Errorf("ATTENDANCE_DUPLICATE_POLICY must be %q or %q, got %q",
			DuplicatePolicyStrict, DuplicatePolicyRetryable, c.AttendanceDuplicatePolicy)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}

	if c.AdminIdentityNumber != "" && len(c.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters when ADMIN_IDENTITY_NUMBER is set")
	}

	if c.SnowflakeMachineID < 0 || c.SnowflakeMachineID > 31 {
		log.Printf("WARN: SNOWFLAKE_MACHINE_ID %d out of range 0-31", c.SnowflakeMachineID)
	}

	return nil
}

func (c *Config) GetDSN() string {
	return c.dsnFor(c.PostgreSQLHost, c.PostgreSQLPort)
}

// GetReplicaDSNs 副本 DSN，账号与主库一致
func (c *Config) GetReplicaDSNs() []string {
	dsns := make([]string, 0, len(c.PostgreSQLReplicaHosts))
	for _, hostPort := range c.PostgreSQLReplicaHosts {
		hostPort = strings.TrimSpace(hostPort)
		if hostPort == "" {
			continue
		}
		host, port := hostPort, c.PostgreSQLPort
		if i := strings.LastIndex(hostPort, ":"); i > 0 {
			host, port = hostPort[:i], hostPort[i+1:]
		}
		dsns = append(dsns, c.dsnFor(host, port))
	}
	return dsns
}

func (c *Config) dsnFor(host, port string) string {
	return "host=" + host +
		" port=" + port +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

// Location 报表与“今日课程”按该时区切日
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
