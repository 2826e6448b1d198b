package dto

import (
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/plans"
)

// PlanInfo - план пользователя вместе с текущим потреблением лимитов
type PlanInfo struct {
	Plan  plans.Plan          `json:"plan"`
	Usage *models.UsageRecord `json:"usage"`
	// Остатки по числовым лимитам; -1 = безлимит
	StudiesRemaining          int `json:"studies_remaining"`
	RecordingMinutesRemaining int `json:"recording_minutes_remaining"`
}

type UsageDeltaRequest struct {
	Action  string `json:"action" validate:"required,oneof=create-study add-participant export-data record-session"`
	Count   int    `json:"count" validate:"min=0"`
	Minutes int    `json:"minutes" validate:"min=0"`
}
