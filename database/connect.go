// file: database/connect.go
package database

import (
	"DaliCTF/config"
	"DaliCTF/models"
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Connect 按配置打开数据库并设置连接池
func Connect(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	// MySQL 的 wait_timeout 会断开长时间空闲的连接，连接到期后由 GORM 重建
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("database connection established", "driver", cfg.Driver)
	return db, nil
}

// MigrateTables 建表/补列。expiry 列可为空，旧数据迁移后视为永不到期
func MigrateTables(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	// 早期版本没有 function 列，补上默认值
	if err := db.Model(&models.Challenge{}).
		Where(clause.Or(
			clause.Eq{Column: clause.Column{Name: "function"}, Value: nil},
			clause.Eq{Column: clause.Column{Name: "function"}, Value: ""},
		)).
		Update("function", models.DecayFunctionLogarithmic).Error; err != nil {
		return fmt.Errorf("backfill decay function: %w", err)
	}
	return nil
}
