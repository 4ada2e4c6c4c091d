package db

import (
	"fmt"
	"time"

	"tower_backend/internal/config" // App configuration
	"tower_backend/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// DSN builds the MySQL Data Source Name from the configuration
func DSN(cfg *config.Config) string {
	return cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
}

// Connect opens the database, retrying a bounded number of times before
// giving up. The process refuses to serve traffic without a store.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	attempts := cfg.DBConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{TranslateError: true})
		if err == nil {
			return db, nil
		}
		logrus.WithFields(logrus.Fields{
			"attempt": i,
			"error":   err.Error(),
		}).Warn("Database connection failed")
		if i < attempts {
			time.Sleep(time.Duration(i) * time.Second)
		}
	}
	return nil, fmt.Errorf("connect after %d attempts: %w", attempts, err)
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}, &domain.Payment{}, &domain.Referral{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.")
	return nil
}
