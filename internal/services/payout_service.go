package services

import (
	"encoding/json"
	"fmt"

	"studyhub_backend/internal/config"
	"studyhub_backend/internal/logger"
	"studyhub_backend/internal/models"
	"studyhub_backend/pkg/apperrors"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/transfer"
)

// PayoutService - интеграция со шлюзом выплат. По умолчанию шлюз
// ОТКЛЮЧЕН конфигурацией: все вызовы возвращают GATEWAY_UNAVAILABLE,
// а одобренные заявки выплачиваются вручную.
type PayoutService interface {
	// Execute проводит выплату по одобренной заявке и возвращает
	// ссылку на перевод во внешнем шлюзе
	Execute(withdrawal *models.WithdrawalRequest) (string, error)
	Enabled() bool
}

type stripePayoutService struct {
	cfg *config.Config
}

func NewPayoutService(cfg *config.Config) PayoutService {
	if cfg.Payout.Enabled {
		stripe.Key = cfg.Payout.StripeKey
	}
	return &stripePayoutService{cfg: cfg}
}

func (s *stripePayoutService) Enabled() bool {
	return s.cfg.Payout.Enabled
}

func (s *stripePayoutService) Execute(withdrawal *models.WithdrawalRequest) (string, error) {
	if !s.cfg.Payout.Enabled {
		return "", apperrors.ErrGatewayUnavailable
	}

	// Аккаунт получателя хранится в payout_details заявки
	var details struct {
		Account string `json:"account"`
	}
	if err := json.Unmarshal(withdrawal.PayoutDetails, &details); err != nil || details.Account == "" {
		return "", apperrors.NewBadRequestError("Withdrawal payout details are missing a destination account")
	}

	// Сумма в центах: cash_value заявки уже в долларах
	amountCents := int64(withdrawal.CashValue * 100)

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Destination: stripe.String(details.Account),
	}
	params.AddMetadata("withdrawal_id", withdrawal.ID)

	tr, err := transfer.New(params)
	if err != nil {
		logger.WithError(err).Error("stripe transfer failed", "withdrawal_id", withdrawal.ID)
		return "", apperrors.Wrap(err, apperrors.CodeExternalServiceError, "payouts",
			fmt.Sprintf("Payout failed for withdrawal %s", withdrawal.ID), 502)
	}

	return tr.ID, nil
}
