package models

import (
	"time"

	"gorm.io/datatypes"
)

// PointsBalance - агрегированный баланс баллов пользователя.
// Инвариант: TotalPoints == AvailablePoints + UsedPoints + ExpiredPoints.
// Все мутации идут через PointsService в одной транзакции БД с блокировкой строки.
type PointsBalance struct {
	BaseModel
	UserID          string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	TotalPoints     int    `gorm:"default:0" json:"total_points"`
	AvailablePoints int    `gorm:"default:0" json:"available_points"`
	UsedPoints      int    `gorm:"default:0" json:"used_points"`
	ExpiredPoints   int    `gorm:"default:0" json:"expired_points"`
}

func (PointsBalance) TableName() string {
	return "points_balances"
}

// PointsTransaction - неизменяемая запись журнала. Amount отрицателен
// для списаний и вывода, BalanceAfter - снимок available после операции.
type PointsTransaction struct {
	BaseModel
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type         TransactionType `gorm:"type:varchar(30);not null;index" json:"type"`
	Amount       int             `gorm:"not null" json:"amount"`
	Reason       string          `json:"reason"`
	BalanceAfter int             `gorm:"not null" json:"balance_after"`
	ExpiresAt    *time.Time      `gorm:"index" json:"expires_at,omitempty"`
	// SweptAt заполняется свипом истечения, чтобы не списывать дважды
	SweptAt    *time.Time `json:"swept_at,omitempty"`
	StudyID    *string    `gorm:"type:uuid;index" json:"study_id,omitempty"`
	AssignedBy *string    `gorm:"type:uuid" json:"assigned_by,omitempty"`
}

func (PointsTransaction) TableName() string {
	return "points_transactions"
}

// WithdrawalRequest - заявка участника на вывод баллов.
// pending -> approved | rejected, оба статуса терминальные.
type WithdrawalRequest struct {
	BaseModel
	UserID        string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount        int              `gorm:"not null" json:"amount"`
	Fee           int              `gorm:"not null" json:"fee"`
	NetAmount     int              `gorm:"not null" json:"net_amount"`
	CashValue     float64          `gorm:"not null" json:"cash_value"`
	PayoutMethod  PayoutMethod     `gorm:"type:varchar(20);not null" json:"payout_method"`
	PayoutDetails datatypes.JSON   `gorm:"type:jsonb" json:"payout_details,omitempty"`
	Status        WithdrawalStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AdminNotes    string           `json:"admin_notes,omitempty"`
	ProcessedBy   *string          `gorm:"type:uuid" json:"processed_by,omitempty"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	// Ссылка на перевод во внешнем шлюзе (заполняется только при включенном шлюзе)
	GatewayRef string `json:"gateway_ref,omitempty"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
