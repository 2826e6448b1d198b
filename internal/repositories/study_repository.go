package repositories

import (
	"errors"

	"studyhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrStudyNotFound       = errors.New("study not found")
	ErrParticipantNotFound = errors.New("study participant not found")
	ErrAlreadyApplied      = errors.New("participant already applied to this study")
	ErrRecordingNotFound   = errors.New("recording session not found")
)

type StudyRepository interface {
	Create(db *gorm.DB, study *models.Study) error
	FindByID(db *gorm.DB, id string) (*models.Study, error)
	FindByResearcher(db *gorm.DB, researcherID string, limit, offset int) ([]models.Study, error)
	CountByResearcher(db *gorm.DB, researcherID string) (int64, error)
	FindActive(db *gorm.DB, limit, offset int) ([]models.Study, error)
	Update(db *gorm.DB, study *models.Study) error
	Delete(db *gorm.DB, id string) error

	// Participants
	AddParticipant(db *gorm.DB, participant *models.StudyParticipant) error
	FindParticipant(db *gorm.DB, studyID, userID string) (*models.StudyParticipant, error)
	FindParticipants(db *gorm.DB, studyID string) ([]models.StudyParticipant, error)
	CountParticipants(db *gorm.DB, studyID string) (int64, error)
	UpdateParticipant(db *gorm.DB, participant *models.StudyParticipant) error

	// Recording sessions
	CreateRecording(db *gorm.DB, session *models.RecordingSession) error
	FindRecording(db *gorm.DB, id string) (*models.RecordingSession, error)
	FindRecordings(db *gorm.DB, studyID string) ([]models.RecordingSession, error)
	UpdateRecording(db *gorm.DB, session *models.RecordingSession) error
}

type studyRepository struct{}

func NewStudyRepository() StudyRepository {
	return &studyRepository{}
}

func (r *studyRepository) Create(db *gorm.DB, study *models.Study) error {
	return db.Create(study).Error
}

func (r *studyRepository) FindByID(db *gorm.DB, id string) (*models.Study, error) {
	var study models.Study
	if err := db.First(&study, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, err
	}
	return &study, nil
}

func (r *studyRepository) FindByResearcher(db *gorm.DB, researcherID string, limit, offset int) ([]models.Study, error) {
	var studies []models.Study
	err := db.Where("researcher_id = ?", researcherID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&studies).Error
	return studies, err
}

func (r *studyRepository) CountByResearcher(db *gorm.DB, researcherID string) (int64, error) {
	var count int64
	err := db.Model(&models.Study{}).Where("researcher_id = ?", researcherID).Count(&count).Error
	return count, err
}

func (r *studyRepository) FindActive(db *gorm.DB, limit, offset int) ([]models.Study, error) {
	var studies []models.Study
	err := db.Where("status = ?", models.StudyStatusActive).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&studies).Error
	return studies, err
}

func (r *studyRepository) Update(db *gorm.DB, study *models.Study) error {
	return db.Save(study).Error
}

func (r *studyRepository) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Study{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStudyNotFound
	}
	return nil
}

// --- Participants ---

func (r *studyRepository) AddParticipant(db *gorm.DB, participant *models.StudyParticipant) error {
	// Уникальный индекс (study_id, user_id) - единственный арбитр повторной
	// заявки: конкурентный дубль ловится на Create, а не предварительным Count
	err := db.Create(participant).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyApplied
	}
	return err
}

func (r *studyRepository) FindParticipant(db *gorm.DB, studyID, userID string) (*models.StudyParticipant, error) {
	var participant models.StudyParticipant
	err := db.Where("study_id = ? AND user_id = ?", studyID, userID).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *studyRepository) FindParticipants(db *gorm.DB, studyID string) ([]models.StudyParticipant, error) {
	var participants []models.StudyParticipant
	err := db.Where("study_id = ?", studyID).Order("created_at ASC").Find(&participants).Error
	return participants, err
}

func (r *studyRepository) CountParticipants(db *gorm.DB, studyID string) (int64, error) {
	var count int64
	err := db.Model(&models.StudyParticipant{}).Where("study_id = ?", studyID).Count(&count).Error
	return count, err
}

func (r *studyRepository) UpdateParticipant(db *gorm.DB, participant *models.StudyParticipant) error {
	return db.Save(participant).Error
}

// --- Recording sessions ---

func (r *studyRepository) CreateRecording(db *gorm.DB, session *models.RecordingSession) error {
	return db.Create(session).Error
}

func (r *studyRepository) FindRecording(db *gorm.DB, id string) (*models.RecordingSession, error) {
	var session models.RecordingSession
	if err := db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *studyRepository) FindRecordings(db *gorm.DB, studyID string) ([]models.RecordingSession, error) {
	var sessions []models.RecordingSession
	err := db.Where("study_id = ?", studyID).Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

func (r *studyRepository) UpdateRecording(db *gorm.DB, session *models.RecordingSession) error {
	return db.Save(session).Error
}
