package models

type UserStatus string
type UserRole string
type PlanTier string
type StudyStatus string
type StudyDifficulty string
type ParticipantStatus string
type TransactionType string
type WithdrawalStatus string
type PayoutMethod string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"

	UserRoleParticipant UserRole = "participant"
	UserRoleResearcher  UserRole = "researcher"
	UserRoleAdmin       UserRole = "admin"

	PlanTierFree       PlanTier = "free"
	PlanTierBasic      PlanTier = "basic"
	PlanTierPro        PlanTier = "pro"
	PlanTierEnterprise PlanTier = "enterprise"

	StudyStatusDraft     StudyStatus = "draft"
	StudyStatusActive    StudyStatus = "active"
	StudyStatusCompleted StudyStatus = "completed"
	StudyStatusArchived  StudyStatus = "archived"

	StudyDifficultyEasy   StudyDifficulty = "easy"
	StudyDifficultyNormal StudyDifficulty = "normal"
	StudyDifficultyHard   StudyDifficulty = "hard"
	StudyDifficultyExpert StudyDifficulty = "expert"

	ParticipantStatusApplied   ParticipantStatus = "applied"
	ParticipantStatusCompleted ParticipantStatus = "completed"

	// Типы записей в журнале транзакций баллов
	TransactionTypeEarned         TransactionType = "earned"
	TransactionTypeSpent          TransactionType = "spent"
	TransactionTypeAdminAssigned  TransactionType = "admin_assigned"
	TransactionTypePlanAllocation TransactionType = "plan_allocation"
	TransactionTypeBonusPoints    TransactionType = "bonus_points"
	TransactionTypeStudyReward    TransactionType = "study_reward"
	TransactionTypeWithdrawal     TransactionType = "withdrawal"
	TransactionTypeWithdrawalFee  TransactionType = "withdrawal_fee"
	TransactionTypeRefund         TransactionType = "refund"
	TransactionTypeExpired        TransactionType = "expired"

	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"

	PayoutMethodPaypal       PayoutMethod = "paypal"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
	PayoutMethodGiftCard     PayoutMethod = "gift_card"
)

// IsCredit сообщает, увеличивает ли транзакция доступный баланс
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeEarned, TransactionTypeAdminAssigned, TransactionTypePlanAllocation,
		TransactionTypeBonusPoints, TransactionTypeStudyReward, TransactionTypeRefund:
		return true
	default:
		return false
	}
}

// IsResolved сообщает, находится ли заявка в терминальном статусе
func (s WithdrawalStatus) IsResolved() bool {
	return s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}
