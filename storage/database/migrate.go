package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"GeoAttend/config"
	"GeoAttend/internal/model"
	"GeoAttend/pkg/logger"
)

const (
	strictIndexName    = "uniq_attendances_user_schedule"
	retryableIndexName = "uniq_attendances_user_schedule_present"
)

// AttendanceIndexSQL 返回重复提交策略对应的唯一索引：要创建的语句与要删除的旧索引
func AttendanceIndexSQL(policy string) (create string, drop string) {
	if policy == config.DuplicatePolicyStrict {
		create = fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON attendances (user_id, schedule_id) "+
			"WHERE deleted_at IS NULL", strictIndexName)
		return create, fmt.Sprintf("DROP INDEX IF EXISTS %s", retryableIndexName)
	}
	create = fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON attendances (user_id, schedule_id) "+
		"WHERE status = 'present' AND deleted_at IS NULL", retryableIndexName)
	return create, fmt.Sprintf("DROP INDEX IF EXISTS %s", strictIndexName)
}

// Migrate 运行数据库迁移，创建所有表以及考勤唯一索引
func Migrate() error {
	db := DB()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	// class_users 带 created_at，需要显式注册为 User.Classes 的连接表
	if err := db.SetupJoinTable(&model.User{}, "Classes", &model.ClassUser{}); err != nil {
		logger.Logger.Error("Failed to setup class_users join table", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.User{},
		&model.Location{},
		&model.Course{},
		&model.ClassRoom{},
		&model.ClassUser{},
		&model.Schedule{},
		&model.Attendance{},
	)
	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	policy := config.Cfg.AttendanceDuplicatePolicy
	create, drop := AttendanceIndexSQL(policy)
	if err := db.Exec(drop).Error; err != nil {
		logger.Logger.Error("Failed to drop attendance index", zap.Error(err))
		return err
	}
	if err := db.Exec(create).Error; err != nil {
		// strict 模式下已有同一 (user, schedule) 的多条记录时会失败，需要先清理数据
		logger.Logger.Error("Failed to create attendance unique index",
			zap.String("policy", policy),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Database migration completed successfully", zap.String("duplicate_policy", policy))
	return nil
}
