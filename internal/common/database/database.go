// Package database 打开 GORM 连接，生产用 PostgreSQL，测试与本地开发可用 sqlite
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/grocy-backend/internal/common/config"
	"github.com/dumeirei/grocy-backend/internal/common/logger"
)

// 支持的驱动
const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

const pingTimeout = 5 * time.Second

var db *gorm.DB

// Init 打开连接、设置连接池并探活，成功后保存为全局实例
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:                                   newGormLogger(cfg),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	switch cfg.Driver {
	case DriverSqlite:
		// sqlite 只允许一个写连接
		sqlDB.SetMaxOpenConns(1)
	default:
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	db = conn
	return conn, nil
}

func dialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == DriverSqlite {
		return sqlite.Open(cfg.DSN())
	}
	return postgres.Open(cfg.DSN())
}

// newGormLogger SQL 日志写入 zap，LogMode 关闭时只保留慢查询与错误
func newGormLogger(cfg *config.DatabaseConfig) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.LogMode {
		level = gormlogger.Info
	}
	return gormlogger.New(
		zap.NewStdLog(logger.ForModule("gorm")),
		gormlogger.Config{
			SlowThreshold:             time.Duration(cfg.SlowThreshold) * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// AutoMigrate 迁移表结构
func AutoMigrate(conn *gorm.DB, models ...interface{}) error {
	if err := conn.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// GetDB Init 创建的全局实例
func GetDB() *gorm.DB {
	return db
}

// Close 关闭全局实例
func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsPostgres 连接是否为 PostgreSQL
func IsPostgres(tx *gorm.DB) bool {
	return tx.Dialector.Name() == DriverPostgres
}
