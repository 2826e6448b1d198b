package repositories

import (
	"errors"
	"time"

	"studyhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUsageNotFound = errors.New("usage record not found")
)

type UsageRepository interface {
	// FindByUserID возвращает ErrUsageNotFound, если записи еще нет;
	// ленивую инициализацию делает сервис
	FindByUserID(db *gorm.DB, userID string) (*models.UsageRecord, error)
	Create(db *gorm.DB, record *models.UsageRecord) error
	Save(db *gorm.DB, record *models.UsageRecord) error
	Reset(db *gorm.DB, userID string) error
	ResetAll(db *gorm.DB) (int64, error)
}

type usageRepository struct{}

func NewUsageRepository() UsageRepository {
	return &usageRepository{}
}

func (r *usageRepository) FindByUserID(db *gorm.DB, userID string) (*models.UsageRecord, error) {
	var record models.UsageRecord
	if err := db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsageNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *usageRepository) Create(db *gorm.DB, record *models.UsageRecord) error {
	return db.Create(record).Error
}

func (r *usageRepository) Save(db *gorm.DB, record *models.UsageRecord) error {
	return db.Save(record).Error
}

func (r *usageRepository) Reset(db *gorm.DB, userID string) error {
	result := db.Model(&models.UsageRecord{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"studies_created":         0,
			"participants_recruited":  0,
			"recording_minutes_used":  0,
			"data_exports":            0,
			"last_reset_date":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageNotFound
	}
	return nil
}

// ResetAll обнуляет счетчики всех пользователей (ежемесячный воркер)
func (r *usageRepository) ResetAll(db *gorm.DB) (int64, error) {
	result := db.Model(&models.UsageRecord{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"studies_created":         0,
			"participants_recruited":  0,
			"recording_minutes_used":  0,
			"data_exports":            0,
			"last_reset_date":         time.Now(),
		})
	return result.RowsAffected, result.Error
}
