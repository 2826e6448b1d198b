package services

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"studyhub_backend/internal/auth"
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/repositories"
	"studyhub_backend/internal/services/dto"
	"studyhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const refreshTokenTTL = 30 * 24 * time.Hour

type AuthService interface {
	Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.UserProfile, error)
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(db *gorm.DB, refreshToken string) (*dto.LoginResponse, error)
	Logout(db *gorm.DB, refreshToken string) error
	ChangePassword(db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

func (s *authService) Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.UserProfile, error) {
	// Админов через публичную регистрацию не создают
	if req.Role != models.UserRoleParticipant && req.Role != models.UserRoleResearcher {
		return nil, apperrors.ErrInvalidUserRole
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.UserStatusActive,
		PlanTier:     models.PlanTierFree,
	}

	if err := s.userRepo.Create(db, user); err != nil {
		if err == repositories.ErrUserAlreadyExists {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, err
	}

	return dto.NewUserProfile(user), nil
}

func (s *authService) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Status == models.UserStatusSuspended || user.Status == models.UserStatusBanned {
		return nil, apperrors.NewForbiddenError("Account is " + string(user.Status))
	}

	return s.issueTokens(db, user)
}

func (s *authService) Refresh(db *gorm.DB, refreshToken string) (*dto.LoginResponse, error) {
	stored, err := s.refreshTokenRepo.FindByToken(db, refreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid refresh token")
	}

	if time.Now().After(stored.ExpiresAt) {
		_ = s.refreshTokenRepo.DeleteByToken(db, refreshToken)
		return nil, apperrors.NewUnauthorizedError("Refresh token expired")
	}

	user, err := s.userRepo.FindByID(db, stored.UserID)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid refresh token")
	}

	// Ротация: старый токен гасим, выпускаем новую пару
	if err := s.refreshTokenRepo.DeleteByToken(db, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(db, user)
}

func (s *authService) Logout(db *gorm.DB, refreshToken string) error {
	return s.refreshTokenRepo.DeleteByToken(db, refreshToken)
}

func (s *authService) ChangePassword(db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	user.PasswordHash = hash
	if err := s.userRepo.Update(db, user); err != nil {
		return err
	}

	// Смена пароля инвалидирует все сессии
	return s.refreshTokenRepo.DeleteByUserID(db, userID)
}

func (s *authService) issueTokens(db *gorm.DB, user *models.User) (*dto.LoginResponse, error) {
	accessToken, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	refreshToken := generateRandomToken()
	err = s.refreshTokenRepo.Create(db, &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	})
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         dto.NewUserProfile(user),
	}, nil
}

func generateRandomToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
