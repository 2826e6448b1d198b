package dto

import (
	"studyhub_backend/internal/models"

	"gorm.io/datatypes"
)

type AssignPointsRequest struct {
	UserID        string `json:"user_id" validate:"required,uuid"`
	Amount        int    `json:"amount" validate:"required,gt=0"`
	Reason        string `json:"reason" validate:"required,max=500"`
	ExpiresInDays int    `json:"expires_in_days" validate:"min=0,max=3650"`
}

type ConsumePointsRequest struct {
	Amount  int     `json:"amount" validate:"required,gt=0"`
	StudyID *string `json:"study_id" validate:"omitempty,uuid"`
	Reason  string  `json:"reason" validate:"max=500"`
}

type RewardParticipantRequest struct {
	ParticipantID string                 `json:"participant_id" validate:"required,uuid"`
	StudyID       string                 `json:"study_id" validate:"required,uuid"`
	Blocks        int                    `json:"blocks" validate:"min=0,max=100"`
	Difficulty    models.StudyDifficulty `json:"difficulty" validate:"required,is-difficulty"`
}

type RequestWithdrawalRequest struct {
	Amount        int                 `json:"amount" validate:"required,gt=0"`
	PayoutMethod  models.PayoutMethod `json:"payout_method" validate:"required,is-payout-method"`
	PayoutDetails datatypes.JSON      `json:"payout_details"`
}

type ProcessWithdrawalRequest struct {
	Status models.WithdrawalStatus `json:"status" validate:"required,is-withdrawal-status"`
	Notes  string                  `json:"notes" validate:"max=1000"`
}

// LedgerResult - транзакция вместе с новым балансом
type LedgerResult struct {
	Transaction *models.PointsTransaction `json:"transaction"`
	NewBalance  *models.PointsBalance     `json:"new_balance"`
}

// PointsHistory - страница журнала транзакций
type PointsHistory struct {
	Transactions []models.PointsTransaction `json:"transactions"`
	Total        int64                      `json:"total"`
	Limit        int                        `json:"limit"`
	Offset       int                        `json:"offset"`
}

// ParticipantEarnings - сводка заработка участника
type ParticipantEarnings struct {
	Balance      *models.PointsBalance      `json:"balance"`
	TotalEarned  int64                      `json:"total_earned"`
	CashValue    float64                    `json:"cash_value"`
	Withdrawals  []models.WithdrawalRequest `json:"withdrawals"`
}
