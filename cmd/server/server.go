package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"go.uber.org/zap"

	appconfig "GeoAttend/config"
	"GeoAttend/internal/handler"
	"GeoAttend/internal/middleware"
	"GeoAttend/internal/router"
	"GeoAttend/internal/service"
	"GeoAttend/pkg/logger"
	pkgotel "GeoAttend/pkg/otel"
	"GeoAttend/pkg/snowflake"
	"GeoAttend/pkg/token"
	"GeoAttend/storage"
	"GeoAttend/storage/database"
	"GeoAttend/storage/mq"
	"GeoAttend/storage/redis"
)

func main() {
	appconfig.MustLoad()
	cfg := appconfig.Cfg

	// 日志部分
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	var serverOpts []config.Option
	if cfg.OTelEnabled {
		shutdown, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Environment,
			OTLPEndpoint:   cfg.OTelEndpoint,
			SampleRatio:    cfg.OTelSampleRatio,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
	}

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// token 在中间件前初始化，middleware 依赖 token
	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	}

	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	if err := service.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	registerHealthChecks()

	logger.Logger.Info("Server starting",
		zap.String("service", cfg.ServiceName),
		zap.String("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
	)

	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)
	serverOpts = append(serverOpts, server.WithHostPorts(addr), server.WithExitWaitTime(3*time.Second))

	if cfg.OTelEnabled {
		tracerOpt, tracingMw := middleware.NewServerTracerConfig()
		serverOpts = append(serverOpts, tracerOpt)
		h := server.Default(serverOpts...)
		h.Use(tracingMw)
		run(ctx, h, addr)
		return
	}

	run(ctx, server.Default(serverOpts...), addr)
}

func run(ctx context.Context, h *server.Hertz, addr string) {
	router.Register(h)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}

func registerHealthChecks() {
	handler.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := database.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	handler.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redis.Client().Ping(ctx).Err()
	})
	handler.RegisterHealthCheck("rabbitmq", func(ctx context.Context) error {
		if conn := mq.Connection(); conn == nil || conn.IsClosed() {
			return fmt.Errorf("connection closed")
		}
		return nil
	})
}
