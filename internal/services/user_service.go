package services

import (
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/repositories"
	"studyhub_backend/internal/services/dto"
	"studyhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	// GetUser возвращает доменную модель - для внутренних проверок плана/роли
	GetUser(db *gorm.DB, userID string) (*models.User, error)
	GetProfile(db *gorm.DB, userID string) (*dto.UserProfile, error)
	ListUsers(db *gorm.DB, limit, offset int) ([]dto.UserProfile, int64, error)
	UpdateStatus(db *gorm.DB, adminID, userID string, status models.UserStatus) error
	UpdatePlanTier(db *gorm.DB, userID string, tier models.PlanTier) error
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUser(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.NewNotFoundError("users", "User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetProfile(db *gorm.DB, userID string) (*dto.UserProfile, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.NewNotFoundError("users", "User not found")
		}
		return nil, err
	}
	return dto.NewUserProfile(user), nil
}

func (s *userService) ListUsers(db *gorm.DB, limit, offset int) ([]dto.UserProfile, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.FindAll(db, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.CountAll(db)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]dto.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, *dto.NewUserProfile(&users[i]))
	}
	return profiles, total, nil
}

func (s *userService) UpdateStatus(db *gorm.DB, adminID, userID string, status models.UserStatus) error {
	if adminID == userID {
		return apperrors.ErrCannotModifySelf
	}

	err := s.userRepo.UpdateStatus(db, userID, status)
	if err == repositories.ErrUserNotFound {
		return apperrors.NewNotFoundError("users", "User not found")
	}
	return err
}

func (s *userService) UpdatePlanTier(db *gorm.DB, userID string, tier models.PlanTier) error {
	err := s.userRepo.UpdatePlanTier(db, userID, tier)
	if err == repositories.ErrUserNotFound {
		return apperrors.NewNotFoundError("users", "User not found")
	}
	return err
}
