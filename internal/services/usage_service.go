package services

import (
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/plans"
	"studyhub_backend/internal/repositories"
	"studyhub_backend/internal/services/dto"
	"studyhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UsageService interface {
	// GetUsage возвращает запись счетчиков или нулевую запись;
	// нулевая запись не персистится на чтении
	GetUsage(db *gorm.DB, userID string) (*models.UsageRecord, error)
	// ApplyDelta применяет именованный инкремент после успешного
	// выполнения ограниченного планом действия
	ApplyDelta(db *gorm.DB, userID string, delta *dto.UsageDeltaRequest) (*models.UsageRecord, error)
	ResetUsage(db *gorm.DB, userID string) error
	GetPlanInfo(db *gorm.DB, user *models.User) (*dto.PlanInfo, error)
	// CheckAction - проверка лимита для пользователя без мутаций
	CheckAction(db *gorm.DB, user *models.User, action plans.Action, data plans.ActionData) (plans.Decision, error)
}

type usageService struct {
	usageRepo repositories.UsageRepository
}

func NewUsageService(usageRepo repositories.UsageRepository) UsageService {
	return &usageService{usageRepo: usageRepo}
}

func (s *usageService) GetUsage(db *gorm.DB, userID string) (*models.UsageRecord, error) {
	record, err := s.usageRepo.FindByUserID(db, userID)
	if err == repositories.ErrUsageNotFound {
		return &models.UsageRecord{UserID: userID}, nil
	}
	return record, err
}

func (s *usageService) ApplyDelta(db *gorm.DB, userID string, delta *dto.UsageDeltaRequest) (*models.UsageRecord, error) {
	record, err := s.usageRepo.FindByUserID(db, userID)
	created := false
	if err == repositories.ErrUsageNotFound {
		record = &models.UsageRecord{UserID: userID}
		created = true
	} else if err != nil {
		return nil, err
	}

	switch plans.Action(delta.Action) {
	case plans.ActionCreateStudy:
		record.StudiesCreated++
	case plans.ActionAddParticipant:
		count := delta.Count
		if count <= 0 {
			count = 1
		}
		record.ParticipantsRecruited += count
	case plans.ActionExportData:
		record.DataExports++
	case plans.ActionRecordSession:
		record.RecordingMinutesUsed += delta.Minutes
	default:
		return nil, apperrors.NewBadRequestError("Unknown usage action: " + delta.Action)
	}

	if created {
		err = s.usageRepo.Create(db, record)
	} else {
		err = s.usageRepo.Save(db, record)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *usageService) ResetUsage(db *gorm.DB, userID string) error {
	err := s.usageRepo.Reset(db, userID)
	if err == repositories.ErrUsageNotFound {
		// Нечего сбрасывать: счетчики и так нулевые
		return nil
	}
	return err
}

func (s *usageService) GetPlanInfo(db *gorm.DB, user *models.User) (*dto.PlanInfo, error) {
	plan, err := plans.Get(user.PlanTier)
	if err != nil {
		return nil, err
	}

	usage, err := s.GetUsage(db, user.ID)
	if err != nil {
		return nil, err
	}

	remaining := func(limit, used int) int {
		if limit == plans.Unlimited {
			return plans.Unlimited
		}
		if used >= limit {
			return 0
		}
		return limit - used
	}

	return &dto.PlanInfo{
		Plan:                      plan,
		Usage:                     usage,
		StudiesRemaining:          remaining(plan.MaxStudies, usage.StudiesCreated),
		RecordingMinutesRemaining: remaining(plan.RecordingMinutes, usage.RecordingMinutesUsed),
	}, nil
}

func (s *usageService) CheckAction(db *gorm.DB, user *models.User, action plans.Action, data plans.ActionData) (plans.Decision, error) {
	plan, err := plans.Get(user.PlanTier)
	if err != nil {
		return plans.Decision{}, err
	}

	usage, err := s.GetUsage(db, user.ID)
	if err != nil {
		return plans.Decision{}, err
	}

	return plans.CheckLimit(plan, usage, action, data), nil
}
