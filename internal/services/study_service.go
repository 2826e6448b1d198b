package services

import (
	"time"

	"studyhub_backend/internal/models"
	"studyhub_backend/internal/plans"
	"studyhub_backend/internal/repositories"
	"studyhub_backend/internal/services/dto"
	"studyhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type StudyService interface {
	CreateStudy(db *gorm.DB, researcher *models.User, req *dto.CreateStudyRequest) (*models.Study, error)
	GetStudy(db *gorm.DB, id string) (*models.Study, error)
	ListMyStudies(db *gorm.DB, researcherID string, limit, offset int) ([]models.Study, error)
	ListActiveStudies(db *gorm.DB, limit, offset int) ([]models.Study, error)
	UpdateStudy(db *gorm.DB, researcherID, studyID string, req *dto.UpdateStudyRequest) (*models.Study, error)
	DeleteStudy(db *gorm.DB, researcherID, studyID string) error

	Apply(db *gorm.DB, participant *models.User, studyID string) (*models.StudyParticipant, error)
	ListParticipants(db *gorm.DB, researcherID, studyID string) ([]models.StudyParticipant, error)
	CompleteParticipant(db *gorm.DB, researcherID, studyID, participantID string) (*models.PointsTransaction, error)

	StartRecording(db *gorm.DB, researcher *models.User, studyID string, req *dto.StartRecordingRequest) (*models.RecordingSession, error)
	StopRecording(db *gorm.DB, researcherID, sessionID string, req *dto.StopRecordingRequest) (*models.RecordingSession, error)
	ExportStudy(db *gorm.DB, researcher *models.User, studyID string) (*dto.StudyExport, error)
}

type studyService struct {
	studyRepo repositories.StudyRepository
	userRepo  repositories.UserRepository
	usage     UsageService
	points    PointsService
}

func NewStudyService(
	studyRepo repositories.StudyRepository,
	userRepo repositories.UserRepository,
	usage UsageService,
	points PointsService,
) StudyService {
	return &studyService{
		studyRepo: studyRepo,
		userRepo:  userRepo,
		usage:     usage,
		points:    points,
	}
}

// decisionError превращает отказ энфорсера в 402 со структурированными деталями
func decisionError(user *models.User, d plans.Decision) error {
	return apperrors.ErrPlanLimitExceeded(d.Reason, apperrors.PlanLimitDetails{
		CurrentPlan:    string(user.PlanTier),
		RequiredPlan:   string(d.RequiredPlan),
		CurrentUsage:   d.CurrentUsage,
		PlanLimit:      d.PlanLimit,
		UpgradeMessage: d.UpgradeMessage,
	})
}

func (s *studyService) CreateStudy(db *gorm.DB, researcher *models.User, req *dto.CreateStudyRequest) (*models.Study, error) {
	decision, err := s.usage.CheckAction(db, researcher, plans.ActionCreateStudy, plans.ActionData{})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, decisionError(researcher, decision)
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.StudyDifficultyNormal
	}

	study := &models.Study{
		ResearcherID:    researcher.ID,
		Title:           req.Title,
		Description:     req.Description,
		Status:          models.StudyStatusDraft,
		Difficulty:      difficulty,
		Blocks:          req.Blocks,
		MaxParticipants: req.MaxParticipants,
	}

	if err := s.studyRepo.Create(db, study); err != nil {
		return nil, err
	}

	// Счетчик обновляется после фактического успеха действия
	if _, err := s.usage.ApplyDelta(db, researcher.ID, &dto.UsageDeltaRequest{Action: string(plans.ActionCreateStudy)}); err != nil {
		return nil, err
	}

	return study, nil
}

func (s *studyService) GetStudy(db *gorm.DB, id string) (*models.Study, error) {
	study, err := s.studyRepo.FindByID(db, id)
	if err != nil {
		if err == repositories.ErrStudyNotFound {
			return nil, apperrors.NewNotFoundError("studies", "Study not found")
		}
		return nil, err
	}
	return study, nil
}

func (s *studyService) ListMyStudies(db *gorm.DB, researcherID string, limit, offset int) ([]models.Study, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.studyRepo.FindByResearcher(db, researcherID, limit, offset)
}

func (s *studyService) ListActiveStudies(db *gorm.DB, limit, offset int) ([]models.Study, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.studyRepo.FindActive(db, limit, offset)
}

// ownedStudy загружает исследование и проверяет владельца
func (s *studyService) ownedStudy(db *gorm.DB, researcherID, studyID string) (*models.Study, error) {
	study, err := s.GetStudy(db, studyID)
	if err != nil {
		return nil, err
	}
	if study.ResearcherID != researcherID {
		return nil, apperrors.ErrInsufficientPermissions
	}
	return study, nil
}

func (s *studyService) UpdateStudy(db *gorm.DB, researcherID, studyID string, req *dto.UpdateStudyRequest) (*models.Study, error) {
	study, err := s.ownedStudy(db, researcherID, studyID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		study.Title = *req.Title
	}
	if req.Description != nil {
		study.Description = *req.Description
	}
	if req.Difficulty != nil {
		study.Difficulty = *req.Difficulty
	}
	if req.Blocks != nil {
		study.Blocks = *req.Blocks
	}
	if req.MaxParticipants != nil {
		study.MaxParticipants = *req.MaxParticipants
	}
	if req.Status != nil {
		if !validStudyTransition(study.Status, *req.Status) {
			return nil, apperrors.ErrInvalidStatus("studies",
				"Cannot transition study from "+string(study.Status)+" to "+string(*req.Status))
		}
		study.Status = *req.Status
	}

	if err := s.studyRepo.Update(db, study); err != nil {
		return nil, err
	}
	return study, nil
}

// validStudyTransition: draft -> active -> completed -> archived,
// плюс draft -> archived для отмененных черновиков
func validStudyTransition(from, to models.StudyStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.StudyStatusDraft:
		return to == models.StudyStatusActive || to == models.StudyStatusArchived
	case models.StudyStatusActive:
		return to == models.StudyStatusCompleted || to == models.StudyStatusArchived
	case models.StudyStatusCompleted:
		return to == models.StudyStatusArchived
	default:
		return false
	}
}

func (s *studyService) DeleteStudy(db *gorm.DB, researcherID, studyID string) error {
	study, err := s.ownedStudy(db, researcherID, studyID)
	if err != nil {
		return err
	}

	// Удалять можно только черновики: по опубликованным есть данные участников
	if study.Status != models.StudyStatusDraft {
		return apperrors.ErrInvalidOperation("studies", "Only draft studies can be deleted")
	}

	return s.studyRepo.Delete(db, studyID)
}

// --- Участники ---

func (s *studyService) Apply(db *gorm.DB, participant *models.User, studyID string) (*models.StudyParticipant, error) {
	study, err := s.GetStudy(db, studyID)
	if err != nil {
		return nil, err
	}

	if study.Status != models.StudyStatusActive {
		return nil, apperrors.ErrInvalidStatus("studies", "Study is not accepting participants")
	}

	count, err := s.studyRepo.CountParticipants(db, studyID)
	if err != nil {
		return nil, err
	}

	// Лимит самого исследования (если задан)
	if study.MaxParticipants > 0 && int(count) >= study.MaxParticipants {
		return nil, apperrors.NewConflictError("studies", "Study is full")
	}

	// Лимит плана владельца исследования
	researcher, err := s.userRepo.FindByID(db, study.ResearcherID)
	if err != nil {
		return nil, err
	}
	decision, err := s.usage.CheckAction(db, researcher, plans.ActionAddParticipant,
		plans.ActionData{CurrentParticipants: int(count)})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, decisionError(researcher, decision)
	}

	entry := &models.StudyParticipant{
		StudyID: studyID,
		UserID:  participant.ID,
		Status:  models.ParticipantStatusApplied,
	}
	if err := s.studyRepo.AddParticipant(db, entry); err != nil {
		if err == repositories.ErrAlreadyApplied {
			return nil, apperrors.ErrConflict(err, "studies", "You have already applied to this study")
		}
		return nil, err
	}

	if _, err := s.usage.ApplyDelta(db, researcher.ID, &dto.UsageDeltaRequest{
		Action: string(plans.ActionAddParticipant),
		Count:  1,
	}); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *studyService) ListParticipants(db *gorm.DB, researcherID, studyID string) ([]models.StudyParticipant, error) {
	if _, err := s.ownedStudy(db, researcherID, studyID); err != nil {
		return nil, err
	}
	return s.studyRepo.FindParticipants(db, studyID)
}

// CompleteParticipant отмечает участие завершенным и начисляет награду.
// Награда - чистый кредит, проверка баланса не нужна.
func (s *studyService) CompleteParticipant(db *gorm.DB, researcherID, studyID, participantID string) (*models.PointsTransaction, error) {
	study, err := s.ownedStudy(db, researcherID, studyID)
	if err != nil {
		return nil, err
	}

	participant, err := s.studyRepo.FindParticipant(db, studyID, participantID)
	if err != nil {
		if err == repositories.ErrParticipantNotFound {
			return nil, apperrors.NewNotFoundError("studies", "Participant not found in this study")
		}
		return nil, err
	}

	if participant.Status == models.ParticipantStatusCompleted {
		return nil, apperrors.ErrConflict(nil, "studies", "Participation already completed")
	}

	now := time.Now()
	participant.Status = models.ParticipantStatusCompleted
	participant.CompletedAt = &now
	if err := s.studyRepo.UpdateParticipant(db, participant); err != nil {
		return nil, err
	}

	return s.points.RewardParticipant(db, &dto.RewardParticipantRequest{
		ParticipantID: participant.UserID,
		StudyID:       studyID,
		Blocks:        study.Blocks,
		Difficulty:    study.Difficulty,
	})
}

// --- Сессии записи ---

func (s *studyService) StartRecording(db *gorm.DB, researcher *models.User, studyID string, req *dto.StartRecordingRequest) (*models.RecordingSession, error) {
	if _, err := s.ownedStudy(db, researcher.ID, studyID); err != nil {
		return nil, err
	}

	decision, err := s.usage.CheckAction(db, researcher, plans.ActionRecordSession,
		plans.ActionData{EstimatedMinutes: req.EstimatedMinutes})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, decisionError(researcher, decision)
	}

	session := &models.RecordingSession{
		StudyID:          studyID,
		StartedBy:        researcher.ID,
		EstimatedMinutes: req.EstimatedMinutes,
	}
	if err := s.studyRepo.CreateRecording(db, session); err != nil {
		return nil, err
	}

	// Минуты резервируются по оценке; при остановке добирается разница
	if _, err := s.usage.ApplyDelta(db, researcher.ID, &dto.UsageDeltaRequest{
		Action:  string(plans.ActionRecordSession),
		Minutes: req.EstimatedMinutes,
	}); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *studyService) StopRecording(db *gorm.DB, researcherID, sessionID string, req *dto.StopRecordingRequest) (*models.RecordingSession, error) {
	session, err := s.studyRepo.FindRecording(db, sessionID)
	if err != nil {
		if err == repositories.ErrRecordingNotFound {
			return nil, apperrors.NewNotFoundError("studies", "Recording session not found")
		}
		return nil, err
	}

	if session.StartedBy != researcherID {
		return nil, apperrors.ErrInsufficientPermissions
	}
	if session.StoppedAt != nil {
		return nil, apperrors.ErrConflict(nil, "studies", "Recording session already stopped")
	}

	now := time.Now()
	session.ActualMinutes = req.ActualMinutes
	session.StoppedAt = &now
	if err := s.studyRepo.UpdateRecording(db, session); err != nil {
		return nil, err
	}

	// Перерасход относительно оценки доучитывается в счетчике
	if overrun := req.ActualMinutes - session.EstimatedMinutes; overrun > 0 {
		if _, err := s.usage.ApplyDelta(db, researcherID, &dto.UsageDeltaRequest{
			Action:  string(plans.ActionRecordSession),
			Minutes: overrun,
		}); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// --- Экспорт ---

func (s *studyService) ExportStudy(db *gorm.DB, researcher *models.User, studyID string) (*dto.StudyExport, error) {
	study, err := s.ownedStudy(db, researcher.ID, studyID)
	if err != nil {
		return nil, err
	}

	decision, err := s.usage.CheckAction(db, researcher, plans.ActionExportData, plans.ActionData{})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, decisionError(researcher, decision)
	}

	participants, err := s.studyRepo.FindParticipants(db, studyID)
	if err != nil {
		return nil, err
	}
	recordings, err := s.studyRepo.FindRecordings(db, studyID)
	if err != nil {
		return nil, err
	}

	if _, err := s.usage.ApplyDelta(db, researcher.ID, &dto.UsageDeltaRequest{Action: string(plans.ActionExportData)}); err != nil {
		return nil, err
	}

	return &dto.StudyExport{
		Study:        study,
		Participants: participants,
		Recordings:   recordings,
		ExportedAt:   time.Now().Format(time.RFC3339),
	}, nil
}
