package models

import (
	"time"

	"gorm.io/datatypes"
)

type Study struct {
	BaseModel
	ResearcherID string          `gorm:"type:uuid;not null;index" json:"researcher_id"`
	Title        string          `gorm:"not null" json:"title"`
	Description  string          `json:"description"`
	Status       StudyStatus     `gorm:"type:varchar(20);default:'draft'" json:"status"`
	Difficulty   StudyDifficulty `gorm:"type:varchar(20);default:'normal'" json:"difficulty"`
	// Количество блоков заданий: влияет на награду участника
	Blocks          int `gorm:"default:0" json:"blocks"`
	MaxParticipants int `gorm:"default:0" json:"max_participants"`

	// Relations
	Participants []StudyParticipant `gorm:"foreignKey:StudyID" json:"-"`
}

// StudyParticipant - заявка участника на исследование.
// Пара (study_id, user_id) уникальна: повторная заявка дает конфликт.
type StudyParticipant struct {
	BaseModel
	StudyID     string            `gorm:"type:uuid;not null;uniqueIndex:idx_study_user" json:"study_id"`
	UserID      string            `gorm:"type:uuid;not null;uniqueIndex:idx_study_user" json:"user_id"`
	Status      ParticipantStatus `gorm:"type:varchar(20);default:'applied'" json:"status"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// RecordingSession - сессия записи в рамках исследования.
// Учитывается в лимите recording_minutes тарифного плана.
type RecordingSession struct {
	BaseModel
	StudyID          string         `gorm:"type:uuid;not null;index" json:"study_id"`
	StartedBy        string         `gorm:"type:uuid;not null" json:"started_by"`
	EstimatedMinutes int            `gorm:"not null" json:"estimated_minutes"`
	ActualMinutes    int            `gorm:"default:0" json:"actual_minutes"`
	StoppedAt        *time.Time     `json:"stopped_at,omitempty"`
	Metadata         datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}

func (RecordingSession) TableName() string {
	return "recording_sessions"
}
