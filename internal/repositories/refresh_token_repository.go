package repositories

import (
	"errors"
	"time"

	"studyhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrRefreshTokenNotFound возвращается, когда refresh-токен не найден в БД
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// RefreshTokenRepository определяет интерфейс для операций с refresh-токенами
type RefreshTokenRepository interface {
	Create(db *gorm.DB, token *models.RefreshToken) error
	FindByToken(db *gorm.DB, tokenString string) (*models.RefreshToken, error)
	DeleteByToken(db *gorm.DB, tokenString string) error
	DeleteByUserID(db *gorm.DB, userID string) error
	CleanExpired(db *gorm.DB) error
}

type refreshTokenRepository struct{}

func NewRefreshTokenRepository() RefreshTokenRepository {
	return &refreshTokenRepository{}
}

func (r *refreshTokenRepository) Create(db *gorm.DB, token *models.RefreshToken) error {
	return db.Create(token).Error
}

func (r *refreshTokenRepository) FindByToken(db *gorm.DB, tokenString string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := db.Where("token = ?", tokenString).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) DeleteByToken(db *gorm.DB, tokenString string) error {
	return db.Where("token = ?", tokenString).Delete(&models.RefreshToken{}).Error
}

func (r *refreshTokenRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

func (r *refreshTokenRepository) CleanExpired(db *gorm.DB) error {
	return db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}
