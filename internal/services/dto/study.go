package dto

import "studyhub_backend/internal/models"

type CreateStudyRequest struct {
	Title           string                 `json:"title" validate:"required,min=3,max=200"`
	Description     string                 `json:"description" validate:"max=5000"`
	Difficulty      models.StudyDifficulty `json:"difficulty" validate:"omitempty,is-difficulty"`
	Blocks          int                    `json:"blocks" validate:"min=0,max=100"`
	MaxParticipants int                    `json:"max_participants" validate:"min=0"`
}

type UpdateStudyRequest struct {
	Title           *string                 `json:"title" validate:"omitempty,min=3,max=200"`
	Description     *string                 `json:"description" validate:"omitempty,max=5000"`
	Difficulty      *models.StudyDifficulty `json:"difficulty" validate:"omitempty,is-difficulty"`
	Blocks          *int                    `json:"blocks" validate:"omitempty,min=0,max=100"`
	MaxParticipants *int                    `json:"max_participants" validate:"omitempty,min=0"`
	Status          *models.StudyStatus     `json:"status" validate:"omitempty,oneof=draft active completed archived"`
}

type StartRecordingRequest struct {
	EstimatedMinutes int `json:"estimated_minutes" validate:"required,gt=0"`
}

type StopRecordingRequest struct {
	ActualMinutes int `json:"actual_minutes" validate:"required,gt=0"`
}

// StudyExport - выгрузка данных исследования (фича export-data)
type StudyExport struct {
	Study        *models.Study             `json:"study"`
	Participants []models.StudyParticipant `json:"participants"`
	Recordings   []models.RecordingSession `json:"recordings"`
	ExportedAt   string                    `json:"exported_at"`
}
