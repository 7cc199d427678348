package db

import (
	"fmt"

	"evewspace/sitetracker/internal/config"
	"evewspace/sitetracker/internal/logging"
	models "evewspace/sitetracker/internal/models/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var PgDB *gorm.DB

// InitORM opens the gorm connection for the configured driver. Postgres
// schemas are owned by the SQL migrations; sqlite is migrated from the models.
func InitORM(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DB.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.SQLite.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// sqlite serializes writers; one connection avoids SQLITE_BUSY under load
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	default:
		db, err = gorm.Open(postgres.Open(cfg.PG.DSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	PgDB = db
	logging.Info("Connected to database via GORM", "driver", cfg.DB.Driver)
	return db, nil
}

// AutoMigrate creates or updates every sitetracker table from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.Models()...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	return nil
}
