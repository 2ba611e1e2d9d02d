package database

import (
	"fmt"

	"blitzscan/internal/config"
	"blitzscan/internal/models"
	"blitzscan/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to postgres and migrates the schema.
func Open(cfg config.DatabaseConfig, l *logger.Logger) (*gorm.DB, error) {
	db, err := OpenDialector(postgres.Open(cfg.DSN()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s@%s:%d: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}

	if l != nil {
		l.WithFields(logger.Fields{
			"host": cfg.Host,
			"name": cfg.Name,
		}).Info("Database connection established and migrated")
	}
	return db, nil
}

// OpenDialector opens any gorm dialector and runs AutoMigrate.
func OpenDialector(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Scan{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}
