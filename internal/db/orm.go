package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	models "jirapulse/internal/models/gorm"
)

var PgDB *gorm.DB

// InitPostgresORM connects GORM and migrates the fixed-shape tables. The
// issues table is managed separately by the schema synchronizer.
func InitPostgresORM(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Configuration{},
		&models.ConfigurationHistory{},
		&models.SyncRun{},
		&models.ProjectSyncDetail{},
		&models.SyncPerformanceMetric{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	PgDB = db
	return db, nil
}
