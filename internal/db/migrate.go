package db

import (
	"fmt"  // Error wrapping
	"time" // Pool lifetimes

	"image_editor/internal/config" // Application configuration
	"image_editor/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/sqlite"      // sqlite driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger levels
)

// Open connects to MySQL when USE_MYSQL is set and to the sqlite file otherwise
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector := sqlite.Open(cfg.SQLitePath) // Default: sqlite file
	if cfg.UseMySQL {
		dialector = mysql.Open(cfg.DSN()) // MySQL connection
	}
	logLevel := logger.Warn // Quiet GORM logging in production
	if !cfg.IsProd {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true, // Unique violations become gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB() // Underlying connection pool
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}
	if cfg.UseMySQL {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		sqlDB.SetMaxOpenConns(1) // sqlite allows a single writer
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"mysql": cfg.UseMySQL, // Which engine
	}).Info("Database connection ready")
	return db, nil
}

// Migrate creates or updates the editor schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}, &domain.Project{}, &domain.ProjectHistory{}, &domain.SavedImage{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
