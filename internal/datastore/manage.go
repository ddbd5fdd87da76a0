package datastore

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Queries slower than this get logged by the GORM logger.
const defaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(
		log.Default(),
		gormlogger.Config{
			SlowThreshold:             defaultSlowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// performAutoMigration runs GORM auto-migration for all pipeline models.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	models := []any{
		&User{},
		&Track{},
		&ListeningHistory{},
		&TrackMetadata{},
		&Recommendation{},
	}

	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to auto-migrate %T for %s database: %w", model, dbType, err)
		}
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}
