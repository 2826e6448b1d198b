package apperrors

import (
	"net/http"
)

/*
Этот файл содержит фабрики и предопределенные переменные
для доменных ошибок: планы/лимиты, баллы, выплаты, учетные записи.
*/

// =========================================================================
// Фабричные ФУНКЦИИ (Используются для оборачивания ошибок, напр. из репозитория)
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404)
// Используется, когда ошибка репозитория (типа gorm.ErrRecordNotFound)
// должна быть преобразована в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrInvalidStatus - фабрика для невалидных статусов (400)
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusBadRequest)
}

// =========================================================================
// Планы и лимиты
// =========================================================================

// PlanLimitDetails - структурированный ответ при превышении лимита плана.
// Клиент использует его, чтобы показать окно апгрейда.
type PlanLimitDetails struct {
	CurrentPlan    string `json:"current_plan"`
	RequiredPlan   string `json:"required_plan,omitempty"`
	CurrentUsage   int    `json:"current_usage,omitempty"`
	PlanLimit      int    `json:"plan_limit,omitempty"`
	UpgradeMessage string `json:"upgrade_message,omitempty"`
}

// ErrPlanLimitExceeded - лимит тарифного плана исчерпан (402 Payment Required)
func ErrPlanLimitExceeded(reason string, details PlanLimitDetails) *AppError {
	return New(CodePlanLimitExceeded, "plans", reason, http.StatusPaymentRequired).
		WithDetails(details)
}

// ErrInvalidPlan - неизвестный тарифный план
func ErrInvalidPlan(tier string) *AppError {
	return New(CodeInvalidPlan, "plans", "Unknown subscription plan: "+tier, http.StatusBadRequest)
}

// =========================================================================
// Баллы и выплаты
// =========================================================================

// BalanceDetails - детали по текущему и требуемому балансу
type BalanceDetails struct {
	Available int `json:"available"`
	Required  int `json:"required"`
}

// ErrInsufficientBalance - на балансе недостаточно баллов
func ErrInsufficientBalance(available, required int) *AppError {
	return New(CodeInsufficientBalance, "points", "Insufficient points balance", http.StatusBadRequest).
		WithDetails(BalanceDetails{Available: available, Required: required})
}

// ErrAlreadyAllocated - ежемесячное начисление в этом месяце уже было
var ErrAlreadyAllocated = New(
	CodeAlreadyAllocated,
	"points",
	"Monthly points already allocated for this month",
	http.StatusConflict,
)

// ErrWithdrawalBelowMinimum - сумма вывода меньше минимальной
func ErrWithdrawalBelowMinimum(minimum int) *AppError {
	return New(CodeValidationFailed, "withdrawals", "Withdrawal amount is below the minimum", http.StatusBadRequest).
		WithDetails(map[string]int{"minimum": minimum})
}

// ErrWithdrawalResolved - заявка на вывод уже обработана (терминальный статус)
var ErrWithdrawalResolved = New(
	CodeInvalidStatus,
	"withdrawals",
	"Withdrawal request has already been resolved",
	http.StatusConflict,
)

// ErrGatewayUnavailable - платежный шлюз отключен конфигурацией
var ErrGatewayUnavailable = New(
	CodeGatewayUnavailable,
	"payouts",
	"Payout gateway is unavailable",
	http.StatusServiceUnavailable,
)

// =========================================================================
// Учетные записи
// =========================================================================

// ErrInvalidUserRole - операция не предусмотрена для роли пользователя
var ErrInvalidUserRole = New(
	CodeInvalidOperation,
	"business_logic",
	"Invalid user role for this operation",
	http.StatusBadRequest,
)

// ErrCannotModifySelf - пользователь (напр. админ) пытается изменить себя
var ErrCannotModifySelf = New(
	CodeForbidden,
	"business_logic",
	"Operation on self is not allowed",
	http.StatusForbidden,
)

// ErrInsufficientPermissions - не-админ пытается выполнить админ-действие
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

// ErrInvalidCredentials - неверная пара email/пароль
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrWeakPassword - пароль не проходит требования сложности
var ErrWeakPassword = New(
	CodeValidationFailed,
	"auth",
	"Password must be at least 8 characters long",
	http.StatusBadRequest,
)
