package database

import (
	"fmt"

	"studyhub_backend/internal/config"
	"studyhub_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var gormDB *gorm.DB

// ConnectGorm инициализирует GORM с URL из конфигурации
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()
	dsn := cfg.Database.DSN

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}

	// uuid_generate_v4 для первичных ключей
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid-ossp extension: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Study{},
		&models.StudyParticipant{},
		&models.RecordingSession{},
		&models.UsageRecord{},
		&models.PointsBalance{},
		&models.PointsTransaction{},
		&models.WithdrawalRequest{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	return nil
}

// AutoMigrateWith мигрирует схему на уже открытом соединении.
// Используется интеграционными тестами.
func AutoMigrateWith(db *gorm.DB) error {
	gormDB = db
	return AutoMigrate()
}
