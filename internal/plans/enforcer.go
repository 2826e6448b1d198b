package plans

import (
	"fmt"

	"studyhub_backend/internal/models"
)

// Action - действие, ограниченное тарифным планом
type Action string

const (
	ActionCreateStudy       Action = "create-study"
	ActionAddParticipant    Action = "add-participant"
	ActionExportData        Action = "export-data"
	ActionAdvancedAnalytics Action = "advanced-analytics"
	ActionTeamCollaboration Action = "team-collaboration"
	ActionRecordSession     Action = "record-session"
)

// ActionData - контекст проверяемого действия
type ActionData struct {
	// Текущее число участников исследования (для add-participant)
	CurrentParticipants int
	// Ожидаемая длительность записи в минутах (для record-session)
	EstimatedMinutes int
}

// Decision - результат проверки лимита
type Decision struct {
	Allowed        bool
	Reason         string
	CurrentUsage   int
	PlanLimit      int
	RequiredPlan   models.PlanTier
	UpgradeMessage string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(plan Plan, reason string, current, limit int) Decision {
	next := NextTier(plan.ID)
	return Decision{
		Allowed:        false,
		Reason:         reason,
		CurrentUsage:   current,
		PlanLimit:      limit,
		RequiredPlan:   next,
		UpgradeMessage: fmt.Sprintf("Upgrade to the %s plan to continue", next),
	}
}

// CheckLimit решает, разрешено ли действие при данном плане и потреблении.
// Лимит -1 (Unlimited) всегда проходит; неизвестное действие разрешено.
// Проверка не мутирует usage: счетчики обновляет вызывающий код после
// фактического успеха действия.
func CheckLimit(plan Plan, usage *models.UsageRecord, action Action, data ActionData) Decision {
	switch action {
	case ActionCreateStudy:
		if plan.MaxStudies != Unlimited && usage.StudiesCreated >= plan.MaxStudies {
			return deny(plan, "Study limit exceeded", usage.StudiesCreated, plan.MaxStudies)
		}

	case ActionAddParticipant:
		if plan.MaxParticipantsPerStudy != Unlimited && data.CurrentParticipants >= plan.MaxParticipantsPerStudy {
			return deny(plan, "Participant limit exceeded for this study",
				data.CurrentParticipants, plan.MaxParticipantsPerStudy)
		}

	case ActionExportData:
		if !plan.ExportData {
			return deny(plan, "Data export not available in your plan", 0, 0)
		}

	case ActionAdvancedAnalytics:
		if !plan.AdvancedAnalytics {
			return deny(plan, "Advanced analytics not available in your plan", 0, 0)
		}

	case ActionTeamCollaboration:
		if !plan.TeamCollaboration {
			return deny(plan, "Team collaboration not available in your plan", 0, 0)
		}

	case ActionRecordSession:
		if plan.RecordingMinutes != Unlimited &&
			usage.RecordingMinutesUsed+data.EstimatedMinutes > plan.RecordingMinutes {
			return deny(plan, "Recording minutes limit exceeded",
				usage.RecordingMinutesUsed, plan.RecordingMinutes)
		}
	}

	return allow()
}
