// Package database opens the relational store and brings its schema up to date.
package database

import (
	"fmt"
	"strings"

	sqlite "github.com/glebarez/sqlite"
	"github.com/tensorcode/backend/internal/catalog"
	"github.com/tensorcode/backend/internal/compute"
	"github.com/tensorcode/backend/internal/roadmaps"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open connects to dsn using the named driver. SQLite connections are limited
// to a single writer.
func Open(driver, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if logger != nil {
		logger.Info("database opened", zap.String("driver", driver))
	}
	return db, nil
}

// Models lists every table owned by the API.
func Models() []any {
	models := []any{&compute.User{}, &migrationRecord{}}
	models = append(models, catalog.Models()...)
	return append(models, roadmaps.Models()...)
}

// Migrate creates or alters every table and then applies pending named data migrations.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	if err := applyMigrations(db, logger); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("database schema up to date")
	}
	return nil
}
