package plans

import (
	"studyhub_backend/internal/models"
	"studyhub_backend/pkg/apperrors"
)

// Unlimited обозначает отсутствие числового лимита в тарифном плане
const Unlimited = -1

// Plan - статическое описание тарифного плана. Каталог неизменяем
// во время работы приложения.
type Plan struct {
	ID                      models.PlanTier `json:"id"`
	Name                    string          `json:"name"`
	MonthlyPoints           int             `json:"monthly_points"`
	MaxStudies              int             `json:"max_studies"`
	MaxParticipantsPerStudy int             `json:"max_participants_per_study"`
	RecordingMinutes        int             `json:"recording_minutes"`
	AdvancedAnalytics       bool            `json:"advanced_analytics"`
	ExportData              bool            `json:"export_data"`
	TeamCollaboration       bool            `json:"team_collaboration"`
	PrioritySupport         bool            `json:"priority_support"`
	CustomBranding          bool            `json:"custom_branding"`
}

var catalog = map[models.PlanTier]Plan{
	models.PlanTierFree: {
		ID:                      models.PlanTierFree,
		Name:                    "Free",
		MonthlyPoints:           100,
		MaxStudies:              3,
		MaxParticipantsPerStudy: 10,
		RecordingMinutes:        60,
	},
	models.PlanTierBasic: {
		ID:                      models.PlanTierBasic,
		Name:                    "Basic",
		MonthlyPoints:           500,
		MaxStudies:              15,
		MaxParticipantsPerStudy: 50,
		RecordingMinutes:        300,
		ExportData:              true,
	},
	models.PlanTierPro: {
		ID:                      models.PlanTierPro,
		Name:                    "Pro",
		MonthlyPoints:           2000,
		MaxStudies:              50,
		MaxParticipantsPerStudy: 200,
		RecordingMinutes:        1200,
		AdvancedAnalytics:       true,
		ExportData:              true,
		TeamCollaboration:       true,
		PrioritySupport:         true,
	},
	models.PlanTierEnterprise: {
		ID:                      models.PlanTierEnterprise,
		Name:                    "Enterprise",
		MonthlyPoints:           10000,
		MaxStudies:              Unlimited,
		MaxParticipantsPerStudy: Unlimited,
		RecordingMinutes:        Unlimited,
		AdvancedAnalytics:       true,
		ExportData:              true,
		TeamCollaboration:       true,
		PrioritySupport:         true,
		CustomBranding:          true,
	},
}

// Порядок тиров задает фиксированную цепочку апгрейда
var tierOrder = []models.PlanTier{
	models.PlanTierFree,
	models.PlanTierBasic,
	models.PlanTierPro,
	models.PlanTierEnterprise,
}

// Get возвращает план по тиру. Неизвестный тир - ошибка INVALID_PLAN.
func Get(tier models.PlanTier) (Plan, error) {
	plan, ok := catalog[tier]
	if !ok {
		return Plan{}, apperrors.ErrInvalidPlan(string(tier))
	}
	return plan, nil
}

// All возвращает каталог в порядке апгрейда
func All() []Plan {
	result := make([]Plan, 0, len(tierOrder))
	for _, tier := range tierOrder {
		result = append(result, catalog[tier])
	}
	return result
}

// NextTier возвращает следующий тир в цепочке апгрейда.
// Enterprise терминален и возвращает сам себя.
func NextTier(tier models.PlanTier) models.PlanTier {
	for i, t := range tierOrder {
		if t == tier {
			if i == len(tierOrder)-1 {
				return t
			}
			return tierOrder[i+1]
		}
	}
	// Неизвестный тир трактуем как free
	return models.PlanTierBasic
}

// Tiers возвращает все тиры в порядке апгрейда
func Tiers() []models.PlanTier {
	return append([]models.PlanTier(nil), tierOrder...)
}
