package repositories

import (
	"errors"
	"time"

	"studyhub_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrBalanceNotFound    = errors.New("points balance not found")
	ErrWithdrawalNotFound = errors.New("withdrawal request not found")
)

type PointsRepository interface {
	// FindBalanceForUpdate берет блокировку строки баланса (SELECT ... FOR UPDATE).
	// Вызывать только внутри транзакции.
	FindBalanceForUpdate(db *gorm.DB, userID string) (*models.PointsBalance, error)
	FindBalance(db *gorm.DB, userID string) (*models.PointsBalance, error)
	CreateBalance(db *gorm.DB, balance *models.PointsBalance) error
	SaveBalance(db *gorm.DB, balance *models.PointsBalance) error
	ListBalances(db *gorm.DB, limit, offset int) ([]models.PointsBalance, error)

	CreateTransaction(db *gorm.DB, tx *models.PointsTransaction) error
	FindTransactions(db *gorm.DB, userID string, limit, offset int) ([]models.PointsTransaction, error)
	CountTransactions(db *gorm.DB, userID string) (int64, error)
	SumCredits(db *gorm.DB, userID string) (int64, error)
	HasAllocationThisMonth(db *gorm.DB, userID string, now time.Time) (bool, error)
	FindExpiredUnswept(db *gorm.DB, now time.Time, limit int) ([]models.PointsTransaction, error)
	MarkSwept(db *gorm.DB, txID string, sweptAt time.Time) error

	CreateWithdrawal(db *gorm.DB, withdrawal *models.WithdrawalRequest) error
	// FindWithdrawalByIDForUpdate берет блокировку строки заявки (SELECT ... FOR UPDATE).
	// Вызывать только внутри транзакции.
	FindWithdrawalByIDForUpdate(db *gorm.DB, id string) (*models.WithdrawalRequest, error)
	FindWithdrawalsByUser(db *gorm.DB, userID string) ([]models.WithdrawalRequest, error)
	FindWithdrawalsByStatus(db *gorm.DB, status models.WithdrawalStatus, limit, offset int) ([]models.WithdrawalRequest, error)
	SaveWithdrawal(db *gorm.DB, withdrawal *models.WithdrawalRequest) error
}

type pointsRepository struct{}

func NewPointsRepository() PointsRepository {
	return &pointsRepository{}
}

// --- Balances ---

func (r *pointsRepository) FindBalanceForUpdate(db *gorm.DB, userID string) (*models.PointsBalance, error) {
	var balance models.PointsBalance
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

func (r *pointsRepository) FindBalance(db *gorm.DB, userID string) (*models.PointsBalance, error) {
	var balance models.PointsBalance
	if err := db.Where("user_id = ?", userID).First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

func (r *pointsRepository) CreateBalance(db *gorm.DB, balance *models.PointsBalance) error {
	return db.Create(balance).Error
}

func (r *pointsRepository) SaveBalance(db *gorm.DB, balance *models.PointsBalance) error {
	return db.Save(balance).Error
}

func (r *pointsRepository) ListBalances(db *gorm.DB, limit, offset int) ([]models.PointsBalance, error) {
	var balances []models.PointsBalance
	err := db.Order("total_points DESC").Limit(limit).Offset(offset).Find(&balances).Error
	return balances, err
}

// --- Transactions ---

func (r *pointsRepository) CreateTransaction(db *gorm.DB, tx *models.PointsTransaction) error {
	return db.Create(tx).Error
}

func (r *pointsRepository) FindTransactions(db *gorm.DB, userID string, limit, offset int) ([]models.PointsTransaction, error) {
	var txs []models.PointsTransaction
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (r *pointsRepository) CountTransactions(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.PointsTransaction{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// SumCredits возвращает сумму всех зачислений пользователя (заработок за все время)
func (r *pointsRepository) SumCredits(db *gorm.DB, userID string) (int64, error) {
	var sum int64
	err := db.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND amount > 0", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

// HasAllocationThisMonth проверяет идемпотентность ежемесячного начисления
func (r *pointsRepository) HasAllocationThisMonth(db *gorm.DB, userID string, now time.Time) (bool, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var count int64
	err := db.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND type = ? AND created_at >= ?",
			userID, models.TransactionTypePlanAllocation, monthStart).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindExpiredUnswept находит зачисления с истекшим сроком, еще не обработанные свипом
func (r *pointsRepository) FindExpiredUnswept(db *gorm.DB, now time.Time, limit int) ([]models.PointsTransaction, error) {
	var txs []models.PointsTransaction
	err := db.Where("amount > 0 AND expires_at IS NOT NULL AND expires_at < ? AND swept_at IS NULL", now).
		Order("expires_at ASC").Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *pointsRepository) MarkSwept(db *gorm.DB, txID string, sweptAt time.Time) error {
	return db.Model(&models.PointsTransaction{}).
		Where("id = ?", txID).
		Update("swept_at", sweptAt).Error
}

// --- Withdrawals ---

func (r *pointsRepository) CreateWithdrawal(db *gorm.DB, withdrawal *models.WithdrawalRequest) error {
	return db.Create(withdrawal).Error
}

func (r *pointsRepository) FindWithdrawalByIDForUpdate(db *gorm.DB, id string) (*models.WithdrawalRequest, error) {
	var withdrawal models.WithdrawalRequest
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&withdrawal, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *pointsRepository) FindWithdrawalsByUser(db *gorm.DB, userID string) ([]models.WithdrawalRequest, error) {
	var withdrawals []models.WithdrawalRequest
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&withdrawals).Error
	return withdrawals, err
}

func (r *pointsRepository) FindWithdrawalsByStatus(db *gorm.DB, status models.WithdrawalStatus, limit, offset int) ([]models.WithdrawalRequest, error) {
	var withdrawals []models.WithdrawalRequest
	err := db.Where("status = ?", status).
		Order("created_at ASC").Limit(limit).Offset(offset).
		Find(&withdrawals).Error
	return withdrawals, err
}

func (r *pointsRepository) SaveWithdrawal(db *gorm.DB, withdrawal *models.WithdrawalRequest) error {
	return db.Save(withdrawal).Error
}
