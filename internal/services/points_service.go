package services

import (
	"math"
	"time"

	"studyhub_backend/internal/email"
	"studyhub_backend/internal/logger"
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/plans"
	"studyhub_backend/internal/repositories"
	"studyhub_backend/internal/services/dto"
	"studyhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Константы журнала баллов
const (
	// MinWithdrawalPoints - минимальная сумма заявки на вывод
	MinWithdrawalPoints = 50
	// WithdrawalFeePercent - комиссия за вывод, в процентах
	WithdrawalFeePercent = 2.5
	// PointConversionRate - курс конвертации: $0.10 за балл
	PointConversionRate = 0.10

	// Формула награды участника
	rewardBase          = 50
	rewardPerBlockBonus = 5
)

var difficultyMultipliers = map[models.StudyDifficulty]float64{
	models.StudyDifficultyEasy:   0.8,
	models.StudyDifficultyNormal: 1.0,
	models.StudyDifficultyHard:   1.5,
	models.StudyDifficultyExpert: 2.0,
}

// CalculateWithdrawalFee возвращает комиссию, чистую сумму и денежный
// эквивалент для заявки на вывод
func CalculateWithdrawalFee(amount int) (fee, net int, cashValue float64) {
	fee = int(math.Round(float64(amount) * WithdrawalFeePercent / 100))
	net = amount - fee
	cashValue = math.Round(float64(net)*PointConversionRate*100) / 100
	return fee, net, cashValue
}

// CalculateReward считает награду участника за завершенное исследование
func CalculateReward(blocks int, difficulty models.StudyDifficulty) int {
	mult, ok := difficultyMultipliers[difficulty]
	if !ok {
		mult = 1.0
	}
	return int(math.Round(float64(rewardBase+blocks*rewardPerBlockBonus) * mult))
}

type PointsService interface {
	GetBalance(db *gorm.DB, userID string) (*models.PointsBalance, error)
	GetHistory(db *gorm.DB, userID string, limit, offset int) (*dto.PointsHistory, error)
	ListBalances(db *gorm.DB, limit, offset int) ([]models.PointsBalance, error)
	GetParticipantEarnings(db *gorm.DB, userID string) (*dto.ParticipantEarnings, error)

	AssignPoints(db *gorm.DB, adminID string, req *dto.AssignPointsRequest) (*dto.LedgerResult, error)
	ConsumePoints(db *gorm.DB, userID string, req *dto.ConsumePointsRequest) (*dto.LedgerResult, error)
	RewardParticipant(db *gorm.DB, req *dto.RewardParticipantRequest) (*models.PointsTransaction, error)
	AllocateMonthlyPoints(db *gorm.DB, userID string) (*dto.LedgerResult, error)

	RequestWithdrawal(db *gorm.DB, userID string, req *dto.RequestWithdrawalRequest) (*models.WithdrawalRequest, error)
	ProcessWithdrawal(db *gorm.DB, adminID, requestID string, req *dto.ProcessWithdrawalRequest) (*models.WithdrawalRequest, error)
	GetWithdrawals(db *gorm.DB, userID string) ([]models.WithdrawalRequest, error)
	ListPendingWithdrawals(db *gorm.DB, limit, offset int) ([]models.WithdrawalRequest, error)

	SweepExpiredPoints(db *gorm.DB, now time.Time) (int, error)
}

type pointsService struct {
	pointsRepo repositories.PointsRepository
	userRepo   repositories.UserRepository
	payouts    PayoutService
	emails     email.Provider
}

func NewPointsService(
	pointsRepo repositories.PointsRepository,
	userRepo repositories.UserRepository,
	payouts PayoutService,
	emails email.Provider,
) PointsService {
	return &pointsService{
		pointsRepo: pointsRepo,
		userRepo:   userRepo,
		payouts:    payouts,
		emails:     emails,
	}
}

// lockOrInitBalance берет блокировку строки баланса внутри транзакции,
// лениво создавая нулевую запись при первом обращении
func (s *pointsService) lockOrInitBalance(tx *gorm.DB, userID string) (*models.PointsBalance, error) {
	balance, err := s.pointsRepo.FindBalanceForUpdate(tx, userID)
	if err == nil {
		return balance, nil
	}
	if err != repositories.ErrBalanceNotFound {
		return nil, err
	}

	balance = &models.PointsBalance{UserID: userID}
	if createErr := s.pointsRepo.CreateBalance(tx, balance); createErr != nil {
		return nil, createErr
	}
	// Повторный запрос с блокировкой: строка уже наша до конца транзакции
	return s.pointsRepo.FindBalanceForUpdate(tx, userID)
}

// --- Чтение ---

func (s *pointsService) GetBalance(db *gorm.DB, userID string) (*models.PointsBalance, error) {
	balance, err := s.pointsRepo.FindBalance(db, userID)
	if err == repositories.ErrBalanceNotFound {
		// Нулевой баланс не персистится на чтении
		return &models.PointsBalance{UserID: userID}, nil
	}
	return balance, err
}

func (s *pointsService) GetHistory(db *gorm.DB, userID string, limit, offset int) (*dto.PointsHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := s.pointsRepo.FindTransactions(db, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.pointsRepo.CountTransactions(db, userID)
	if err != nil {
		return nil, err
	}

	return &dto.PointsHistory{
		Transactions: txs,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

func (s *pointsService) ListBalances(db *gorm.DB, limit, offset int) ([]models.PointsBalance, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.pointsRepo.ListBalances(db, limit, offset)
}

func (s *pointsService) GetParticipantEarnings(db *gorm.DB, userID string) (*dto.ParticipantEarnings, error) {
	balance, err := s.GetBalance(db, userID)
	if err != nil {
		return nil, err
	}

	totalEarned, err := s.pointsRepo.SumCredits(db, userID)
	if err != nil {
		return nil, err
	}

	withdrawals, err := s.pointsRepo.FindWithdrawalsByUser(db, userID)
	if err != nil {
		return nil, err
	}

	return &dto.ParticipantEarnings{
		Balance:     balance,
		TotalEarned: totalEarned,
		CashValue:   math.Round(float64(balance.AvailablePoints)*PointConversionRate*100) / 100,
		Withdrawals: withdrawals,
	}, nil
}

// --- Мутации журнала ---
// Каждая мутация выполняется в одной транзакции БД с блокировкой строки
// баланса: запись журнала и обновление баланса атомарны.

func (s *pointsService) AssignPoints(db *gorm.DB, adminID string, req *dto.AssignPointsRequest) (*dto.LedgerResult, error) {
	if req.Amount <= 0 {
		return nil, apperrors.NewBadRequestError("Amount must be positive")
	}

	// Получатель должен существовать
	if _, err := s.userRepo.FindByID(db, req.UserID); err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.NewNotFoundError("users", "Target user not found")
		}
		return nil, err
	}

	var result dto.LedgerResult

	err := db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.lockOrInitBalance(tx, req.UserID)
		if err != nil {
			return err
		}

		balance.TotalPoints += req.Amount
		balance.AvailablePoints += req.Amount

		var expiresAt *time.Time
		if req.ExpiresInDays > 0 {
			t := time.Now().AddDate(0, 0, req.ExpiresInDays)
			expiresAt = &t
		}

		entry := &models.PointsTransaction{
			UserID:       req.UserID,
			Type:         models.TransactionTypeAdminAssigned,
			Amount:       req.Amount,
			Reason:       req.Reason,
			BalanceAfter: balance.AvailablePoints,
			ExpiresAt:    expiresAt,
			AssignedBy:   &adminID,
		}
		if err := s.pointsRepo.CreateTransaction(tx, entry); err != nil {
			return err
		}
		if err := s.pointsRepo.SaveBalance(tx, balance); err != nil {
			return err
		}

		result.Transaction = entry
		result.NewBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("points assigned",
		"admin_id", adminID, "user_id", req.UserID, "amount", req.Amount)
	return &result, nil
}

func (s *pointsService) ConsumePoints(db *gorm.DB, userID string, req *dto.ConsumePointsRequest) (*dto.LedgerResult, error) {
	if req.Amount <= 0 {
		return nil, apperrors.NewBadRequestError("Amount must be positive")
	}

	var result dto.LedgerResult

	err := db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.lockOrInitBalance(tx, userID)
		if err != nil {
			return err
		}

		if balance.AvailablePoints < req.Amount {
			return apperrors.ErrInsufficientBalance(balance.AvailablePoints, req.Amount)
		}

		balance.AvailablePoints -= req.Amount
		balance.UsedPoints += req.Amount

		reason := req.Reason
		if reason == "" {
			reason = "Points consumed"
		}

		entry := &models.PointsTransaction{
			UserID:       userID,
			Type:         models.TransactionTypeSpent,
			Amount:       -req.Amount,
			Reason:       reason,
			BalanceAfter: balance.AvailablePoints,
			StudyID:      req.StudyID,
		}
		if err := s.pointsRepo.CreateTransaction(tx, entry); err != nil {
			return err
		}
		if err := s.pointsRepo.SaveBalance(tx, balance); err != nil {
			return err
		}

		result.Transaction = entry
		result.NewBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *pointsService) RewardParticipant(db *gorm.DB, req *dto.RewardParticipantRequest) (*models.PointsTransaction, error) {
	reward := CalculateReward(req.Blocks, req.Difficulty)

	var entry *models.PointsTransaction

	err := db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.lockOrInitBalance(tx, req.ParticipantID)
		if err != nil {
			return err
		}

		balance.TotalPoints += reward
		balance.AvailablePoints += reward

		entry = &models.PointsTransaction{
			UserID:       req.ParticipantID,
			Type:         models.TransactionTypeStudyReward,
			Amount:       reward,
			Reason:       "Study completion reward",
			BalanceAfter: balance.AvailablePoints,
			StudyID:      &req.StudyID,
		}
		if err := s.pointsRepo.CreateTransaction(tx, entry); err != nil {
			return err
		}
		return s.pointsRepo.SaveBalance(tx, balance)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("participant rewarded",
		"participant_id", req.ParticipantID, "study_id", req.StudyID, "reward", reward)
	return entry, nil
}

func (s *pointsService) AllocateMonthlyPoints(db *gorm.DB, userID string) (*dto.LedgerResult, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.NewNotFoundError("users", "User not found")
		}
		return nil, err
	}

	plan, err := plans.Get(user.PlanTier)
	if err != nil {
		return nil, err
	}

	var result dto.LedgerResult
	now := time.Now()

	err = db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.lockOrInitBalance(tx, userID)
		if err != nil {
			return err
		}

		// Идемпотентность: одно начисление на календарный месяц.
		// Проверка под блокировкой баланса: конкурентный запрос ждет
		// коммита и видит уже созданную запись начисления
		exists, err := s.pointsRepo.HasAllocationThisMonth(tx, userID, now)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrAlreadyAllocated
		}

		balance.TotalPoints += plan.MonthlyPoints
		balance.AvailablePoints += plan.MonthlyPoints

		// Начисленные по плану баллы живут до конца следующего месяца
		expiresAt := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 2, 0)

		entry := &models.PointsTransaction{
			UserID:       userID,
			Type:         models.TransactionTypePlanAllocation,
			Amount:       plan.MonthlyPoints,
			Reason:       "Monthly plan allocation (" + string(plan.ID) + ")",
			BalanceAfter: balance.AvailablePoints,
			ExpiresAt:    &expiresAt,
		}
		if err := s.pointsRepo.CreateTransaction(tx, entry); err != nil {
			return err
		}
		if err := s.pointsRepo.SaveBalance(tx, balance); err != nil {
			return err
		}

		result.Transaction = entry
		result.NewBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(user.Email, email.MonthlyAllocationSubject(),
		email.MonthlyAllocationBody(user.Name, plan.MonthlyPoints))

	return &result, nil
}

// --- Вывод средств ---

func (s *pointsService) RequestWithdrawal(db *gorm.DB, userID string, req *dto.RequestWithdrawalRequest) (*models.WithdrawalRequest, error) {
	if req.Amount < MinWithdrawalPoints {
		return nil, apperrors.ErrWithdrawalBelowMinimum(MinWithdrawalPoints)
	}

	fee, net, cashValue := CalculateWithdrawalFee(req.Amount)
	var withdrawal *models.WithdrawalRequest

	err := db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.lockOrInitBalance(tx, userID)
		if err != nil {
			return err
		}

		if balance.AvailablePoints < req.Amount {
			return apperrors.ErrInsufficientBalance(balance.AvailablePoints, req.Amount)
		}

		// Дебетуется полная сумма: комиссия удерживается из нее,
		// а разбивка fee/net хранится на заявке
		balance.AvailablePoints -= req.Amount
		balance.UsedPoints += req.Amount

		withdrawal = &models.WithdrawalRequest{
			UserID:        userID,
			Amount:        req.Amount,
			Fee:           fee,
			NetAmount:     net,
			CashValue:     cashValue,
			PayoutMethod:  req.PayoutMethod,
			PayoutDetails: req.PayoutDetails,
			Status:        models.WithdrawalStatusPending,
		}
		if err := s.pointsRepo.CreateWithdrawal(tx, withdrawal); err != nil {
			return err
		}

		entry := &models.PointsTransaction{
			UserID:       userID,
			Type:         models.TransactionTypeWithdrawal,
			Amount:       -req.Amount,
			Reason:       "Withdrawal request (" + string(req.PayoutMethod) + ")",
			BalanceAfter: balance.AvailablePoints,
		}
		if err := s.pointsRepo.CreateTransaction(tx, entry); err != nil {
			return err
		}
		return s.pointsRepo.SaveBalance(tx, balance)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("withdrawal requested",
		"user_id", userID, "amount", req.Amount, "net", net, "method", req.PayoutMethod)
	return withdrawal, nil
}

func (s *pointsService) ProcessWithdrawal(db *gorm.DB, adminID, requestID string, req *dto.ProcessWithdrawalRequest) (*models.WithdrawalRequest, error) {
	var withdrawal *models.WithdrawalRequest

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		// Блокировка строки заявки: конкурентное решение по той же заявке
		// ждет коммита и видит уже терминальный статус
		withdrawal, err = s.pointsRepo.FindWithdrawalByIDForUpdate(tx, requestID)
		if err != nil {
			if err == repositories.ErrWithdrawalNotFound {
				return apperrors.NewNotFoundError("withdrawals", "Withdrawal request not found")
			}
			return err
		}

		// pending -> approved | rejected; терминальные статусы неизменяемы
		if withdrawal.Status.IsResolved() {
			return apperrors.ErrWithdrawalResolved
		}

		now := time.Now()
		withdrawal.Status = req.Status
		withdrawal.AdminNotes = req.Notes
		withdrawal.ProcessedBy = &adminID
		withdrawal.ProcessedAt = &now

		switch req.Status {
		case models.WithdrawalStatusRejected:
			// Компенсирующая запись в той же транзакции: списанная сумма
			// возвращается на доступный баланс
			balance, err := s.lockOrInitBalance(tx, withdrawal.UserID)
			if err != nil {
				return err
			}
			balance.AvailablePoints += withdrawal.Amount
			balance.UsedPoints -= withdrawal.Amount

			entry := &models.PointsTransaction{
				UserID:       withdrawal.UserID,
				Type:         models.TransactionTypeRefund,
				Amount:       withdrawal.Amount,
				Reason:       "Withdrawal request rejected",
				BalanceAfter: balance.AvailablePoints,
			}
			if err := s.pointsRepo.CreateTransaction(tx, entry); err != nil {
				return err
			}
			if err := s.pointsRepo.SaveBalance(tx, balance); err != nil {
				return err
			}

		case models.WithdrawalStatusApproved:
			// Выплата через шлюз только если он включен; иначе заявка
			// одобряется для ручной выплаты
			if s.payouts != nil && s.payouts.Enabled() {
				ref, err := s.payouts.Execute(withdrawal)
				if err != nil {
					return err
				}
				withdrawal.GatewayRef = ref
			}
		}

		return s.pointsRepo.SaveWithdrawal(tx, withdrawal)
	})
	if err != nil {
		return nil, err
	}

	if user, uerr := s.userRepo.FindByID(db, withdrawal.UserID); uerr == nil {
		s.notify(user.Email, email.WithdrawalProcessedSubject(),
			email.WithdrawalProcessedBody(user.Name, string(withdrawal.Status),
				withdrawal.NetAmount, withdrawal.CashValue))
	}

	return withdrawal, nil
}

func (s *pointsService) GetWithdrawals(db *gorm.DB, userID string) ([]models.WithdrawalRequest, error) {
	return s.pointsRepo.FindWithdrawalsByUser(db, userID)
}

func (s *pointsService) ListPendingWithdrawals(db *gorm.DB, limit, offset int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.pointsRepo.FindWithdrawalsByStatus(db, models.WithdrawalStatusPending, limit, offset)
}

// --- Свип истечения ---

// SweepExpiredPoints переносит истекшие зачисления из available в expired,
// поддерживая инвариант total == available + used + expired.
// Каждая запись обрабатывается в отдельной транзакции.
func (s *pointsService) SweepExpiredPoints(db *gorm.DB, now time.Time) (int, error) {
	expired, err := s.pointsRepo.FindExpiredUnswept(db, now, 500)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range expired {
		entry := expired[i]

		err := db.Transaction(func(tx *gorm.DB) error {
			balance, err := s.lockOrInitBalance(tx, entry.UserID)
			if err != nil {
				return err
			}

			// Истечь может не больше, чем осталось доступным
			amount := entry.Amount
			if amount > balance.AvailablePoints {
				amount = balance.AvailablePoints
			}

			if amount > 0 {
				balance.AvailablePoints -= amount
				balance.ExpiredPoints += amount

				record := &models.PointsTransaction{
					UserID:       entry.UserID,
					Type:         models.TransactionTypeExpired,
					Amount:       -amount,
					Reason:       "Points expired",
					BalanceAfter: balance.AvailablePoints,
				}
				if err := s.pointsRepo.CreateTransaction(tx, record); err != nil {
					return err
				}
				if err := s.pointsRepo.SaveBalance(tx, balance); err != nil {
					return err
				}
			}

			return s.pointsRepo.MarkSwept(tx, entry.ID, now)
		})
		if err != nil {
			logger.WithError(err).Error("expiry sweep failed for transaction", "tx_id", entry.ID)
			continue
		}
		swept++
	}

	return swept, nil
}

// notify отправляет письмо в лучшем случае: сбой доставки не влияет
// на результат операции
func (s *pointsService) notify(to, subject, body string) {
	if s.emails == nil {
		return
	}
	if err := s.emails.Send(to, subject, body); err != nil {
		logger.WithError(err).Warn("notification email failed", "to", to)
	}
}
