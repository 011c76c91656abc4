package config

import (
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/hotelbridge/internal/models"
)

const defaultSQLitePath = "hotelbridge.db"

var DB *gorm.DB

// InitDatabase opens the hotel records store: postgres when POSTGRES_URI is
// set, otherwise a sqlite file at DB_PATH.
func InitDatabase() error {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel()),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	if uri := strings.TrimSpace(os.Getenv("POSTGRES_URI")); uri != "" {
		dialector = postgres.Open(uri)
	} else {
		path := strings.TrimSpace(os.Getenv("DB_PATH"))
		if path == "" {
			path = defaultSQLitePath
		}
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// Connection Pooling settings
	if db.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.AutoMigrate(&models.Record{}); err != nil {
		return err
	}

	DB = db
	return nil
}

func gormLogLevel() logger.LogLevel {
	switch strings.ToLower(os.Getenv("DB_LOG_LEVEL")) {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

func CloseDatabase() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
