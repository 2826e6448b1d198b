package integration_test

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"studyhub_backend/internal/models"
	"studyhub_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWithdrawal_BelowMinimum - заявка меньше минимума отклоняется
func TestWithdrawal_BelowMinimum(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	token, user := helpers.CreateAndLoginParticipant(t, ts)
	helpers.AssignPointsViaAPI(t, ts, adminToken, user.ID, 100)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/points/withdrawals", token, map[string]interface{}{
		"amount":         30,
		"payout_method":  "paypal",
		"payout_details": map[string]string{"account": "user@paypal.test"},
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "minimum")
}

// TestWithdrawal_RequestAndApprove - полный цикл: заявка, комиссия, одобрение
func TestWithdrawal_RequestAndApprove(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	token, user := helpers.CreateAndLoginParticipant(t, ts)
	helpers.AssignPointsViaAPI(t, ts, adminToken, user.ID, 100)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/points/withdrawals", token, map[string]interface{}{
		"amount":         60,
		"payout_method":  "paypal",
		"payout_details": map[string]string{"account": "user@paypal.test"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var withdrawal models.WithdrawalRequest
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &withdrawal))
	assert.Equal(t, models.WithdrawalStatusPending, withdrawal.Status)
	assert.Equal(t, 60, withdrawal.Amount)
	assert.Equal(t, 2, withdrawal.Fee) // 2.5% от 60, округление
	assert.Equal(t, 58, withdrawal.NetAmount)
	assert.InDelta(t, 5.80, withdrawal.CashValue, 0.001)

	// Баллы перешли из available в used
	balance := helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 40, balance.AvailablePoints)
	assert.Equal(t, 60, balance.UsedPoints)
	assert.Equal(t, 100, balance.TotalPoints)

	// Одобрение (шлюз выплат в тестах выключен - просто смена статуса)
	appRes, appBody := ts.SendRequest(t, "PUT", "/api/v1/admin/points/withdrawals/"+withdrawal.ID, adminToken, map[string]interface{}{
		"status": "approved",
		"notes":  "looks good",
	})
	require.Equal(t, http.StatusOK, appRes.StatusCode, appBody)

	var approved models.WithdrawalRequest
	require.NoError(t, json.Unmarshal([]byte(appBody), &approved))
	assert.Equal(t, models.WithdrawalStatusApproved, approved.Status)
	assert.NotNil(t, approved.ProcessedAt)

	// Одобрение не возвращает баллы
	balance = helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 40, balance.AvailablePoints)
	assert.Equal(t, 60, balance.UsedPoints)

	// Повторная обработка той же заявки - конфликт
	dupRes, _ := ts.SendRequest(t, "PUT", "/api/v1/admin/points/withdrawals/"+withdrawal.ID, adminToken, map[string]interface{}{
		"status": "rejected",
	})
	assert.Equal(t, http.StatusConflict, dupRes.StatusCode)
}

// TestWithdrawal_RejectRefundsPoints - отклонение возвращает баллы на баланс
func TestWithdrawal_RejectRefundsPoints(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	token, user := helpers.CreateAndLoginParticipant(t, ts)
	helpers.AssignPointsViaAPI(t, ts, adminToken, user.ID, 100)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/points/withdrawals", token, map[string]interface{}{
		"amount":         50,
		"payout_method":  "bank_transfer",
		"payout_details": map[string]string{"account": "KZ123456789"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var withdrawal models.WithdrawalRequest
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &withdrawal))

	rejRes, rejBody := ts.SendRequest(t, "PUT", "/api/v1/admin/points/withdrawals/"+withdrawal.ID, adminToken, map[string]interface{}{
		"status": "rejected",
		"notes":  "suspicious activity",
	})
	require.Equal(t, http.StatusOK, rejRes.StatusCode, rejBody)

	// Баллы вернулись, инвариант сохранен
	balance := helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 100, balance.AvailablePoints)
	assert.Equal(t, 0, balance.UsedPoints)
	assert.Equal(t, balance.TotalPoints,
		balance.AvailablePoints+balance.UsedPoints+balance.ExpiredPoints)

	// В журнале есть возврат
	var refund models.PointsTransaction
	err := ts.DB.Where("user_id = ? AND type = ?", user.ID, models.TransactionTypeRefund).
		First(&refund).Error
	require.NoError(t, err)
	assert.Equal(t, 50, refund.Amount)
}

// TestWithdrawal_ConcurrentDecisions - два одновременных решения по одной
// заявке: проходит ровно одно, возврат начисляется один раз
func TestWithdrawal_ConcurrentDecisions(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	token, user := helpers.CreateAndLoginParticipant(t, ts)
	helpers.AssignPointsViaAPI(t, ts, adminToken, user.ID, 100)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/points/withdrawals", token, map[string]interface{}{
		"amount":         60,
		"payout_method":  "paypal",
		"payout_details": map[string]string{"account": "user@paypal.test"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var withdrawal models.WithdrawalRequest
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &withdrawal))

	statuses := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _ := ts.SendRequest(t, "PUT", "/api/v1/admin/points/withdrawals/"+withdrawal.ID, adminToken, map[string]interface{}{
				"status": "rejected",
				"notes":  "duplicate account",
			})
			statuses <- r.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	// Строка заявки блокируется на время решения: второй запрос видит
	// терминальный статус и получает конфликт
	counts := map[int]int{}
	for code := range statuses {
		counts[code]++
	}
	assert.Equal(t, 1, counts[http.StatusOK])
	assert.Equal(t, 1, counts[http.StatusConflict])

	// Возврат применен ровно один раз
	balance := helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 100, balance.AvailablePoints)
	assert.Equal(t, 0, balance.UsedPoints)
	assert.Equal(t, balance.TotalPoints,
		balance.AvailablePoints+balance.UsedPoints+balance.ExpiredPoints)

	var refunds int64
	require.NoError(t, ts.DB.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, models.TransactionTypeRefund).
		Count(&refunds).Error)
	assert.EqualValues(t, 1, refunds)
}

// TestWithdrawal_InsufficientAvailable - нельзя вывести больше, чем доступно
func TestWithdrawal_InsufficientAvailable(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	token, user := helpers.CreateAndLoginParticipant(t, ts)
	helpers.AssignPointsViaAPI(t, ts, adminToken, user.ID, 60)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/points/withdrawals", token, map[string]interface{}{
		"amount":         80,
		"payout_method":  "paypal",
		"payout_details": map[string]string{"account": "user@paypal.test"},
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "INSUFFICIENT_BALANCE")
}
