package validator

import (
	"log"

	"studyhub_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Если правило не удалось зарегистрировать, приложение
			// не должно запускаться: это критическая ошибка.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-user-role': роль пользователя валидна
	mustRegister("is-user-role", validateUserRole)

	// 'is-plan-tier': тарифный план валиден
	mustRegister("is-plan-tier", validatePlanTier)

	// 'is-difficulty': сложность исследования валидна
	mustRegister("is-difficulty", validateDifficulty)

	// 'is-payout-method': способ выплаты валиден
	mustRegister("is-payout-method", validatePayoutMethod)

	// 'is-withdrawal-status': терминальный статус заявки валиден
	mustRegister("is-withdrawal-status", validateWithdrawalStatus)
}

// --- Функции валидации ---

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Не проверяем пустые значения, для этого есть 'required'
	}

	switch models.UserRole(value) {
	case models.UserRoleParticipant, models.UserRoleResearcher, models.UserRoleAdmin:
		return true
	default:
		return false
	}
}

func validatePlanTier(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.PlanTier(value) {
	case models.PlanTierFree, models.PlanTierBasic, models.PlanTierPro, models.PlanTierEnterprise:
		return true
	default:
		return false
	}
}

func validateDifficulty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.StudyDifficulty(value) {
	case models.StudyDifficultyEasy, models.StudyDifficultyNormal,
		models.StudyDifficultyHard, models.StudyDifficultyExpert:
		return true
	default:
		return false
	}
}

func validatePayoutMethod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.PayoutMethod(value) {
	case models.PayoutMethodPaypal, models.PayoutMethodBankTransfer, models.PayoutMethodGiftCard:
		return true
	default:
		return false
	}
}

func validateWithdrawalStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	// Админ может перевести заявку только в терминальный статус
	switch models.WithdrawalStatus(value) {
	case models.WithdrawalStatusApproved, models.WithdrawalStatusRejected:
		return true
	default:
		return false
	}
}
