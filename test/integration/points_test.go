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

// TestAssignAndConsume_Conservation - начисление и трата сохраняют инвариант
// total == available + used + expired
func TestAssignAndConsume_Conservation(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	participantToken, participant := helpers.CreateAndLoginParticipant(t, ts)

	helpers.AssignPointsViaAPI(t, ts, adminToken, participant.ID, 200)

	balance := helpers.GetBalance(t, ts.DB, participant.ID)
	assert.Equal(t, 200, balance.TotalPoints)
	assert.Equal(t, 200, balance.AvailablePoints)
	assert.Equal(t, 0, balance.UsedPoints)

	// Тратим часть
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/points/consume", participantToken, map[string]interface{}{
		"amount": 75,
		"reason": "premium study access",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	balance = helpers.GetBalance(t, ts.DB, participant.ID)
	assert.Equal(t, 200, balance.TotalPoints)
	assert.Equal(t, 125, balance.AvailablePoints)
	assert.Equal(t, 75, balance.UsedPoints)
	assert.Equal(t, balance.TotalPoints,
		balance.AvailablePoints+balance.UsedPoints+balance.ExpiredPoints)

	// Запись в журнале отрицательная
	var tx models.PointsTransaction
	err := ts.DB.Where("user_id = ? AND type = ?", participant.ID, models.TransactionTypeSpent).
		First(&tx).Error
	require.NoError(t, err)
	assert.Equal(t, -75, tx.Amount)
	assert.Equal(t, 125, tx.BalanceAfter)
}

// TestConsume_InsufficientBalance - списание сверх доступного отклоняется атомарно
func TestConsume_InsufficientBalance(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	participantToken, participant := helpers.CreateAndLoginParticipant(t, ts)

	helpers.AssignPointsViaAPI(t, ts, adminToken, participant.ID, 30)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/points/consume", participantToken, map[string]interface{}{
		"amount": 100,
		"reason": "too much",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "INSUFFICIENT_BALANCE")

	// Баланс не изменился
	balance := helpers.GetBalance(t, ts.DB, participant.ID)
	assert.Equal(t, 30, balance.AvailablePoints)
	assert.Equal(t, 0, balance.UsedPoints)
}

// TestAllocateMonthly_Idempotent - повторное ежемесячное начисление дает 409
func TestAllocateMonthly_Idempotent(t *testing.T) {
	ts := GetTestServer(t)

	token, user := helpers.CreateAndLoginResearcher(t, ts)

	res1, body1 := ts.SendRequest(t, "POST", "/api/v1/points/allocate-monthly", token, nil)
	require.Equal(t, http.StatusOK, res1.StatusCode, body1)

	// free-план дает 100 баллов в месяц
	balance := helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 100, balance.AvailablePoints)

	res2, body2 := ts.SendRequest(t, "POST", "/api/v1/points/allocate-monthly", token, nil)
	assert.Equal(t, http.StatusConflict, res2.StatusCode)
	assert.Contains(t, body2, "ALREADY_ALLOCATED")

	// Баланс прежний
	balance = helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 100, balance.AvailablePoints)
}

// TestAllocateMonthly_ConcurrentRequests - два одновременных запроса на
// ежемесячное начисление: баллы начисляются один раз
func TestAllocateMonthly_ConcurrentRequests(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	token, user := helpers.CreateAndLoginParticipant(t, ts)
	// Строка баланса уже существует: оба запроса сериализуются на ее блокировке
	helpers.AssignPointsViaAPI(t, ts, adminToken, user.ID, 10)

	statuses := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _ := ts.SendRequest(t, "POST", "/api/v1/points/allocate-monthly", token, nil)
			statuses <- r.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for code := range statuses {
		counts[code]++
	}
	assert.Equal(t, 1, counts[http.StatusOK])
	assert.Equal(t, 1, counts[http.StatusConflict])

	// Ровно одно начисление: 10 стартовых + 100 по free-плану
	balance := helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 110, balance.AvailablePoints)
	assert.Equal(t, 110, balance.TotalPoints)

	var allocations int64
	require.NoError(t, ts.DB.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, models.TransactionTypePlanAllocation).
		Count(&allocations).Error)
	assert.EqualValues(t, 1, allocations)
}

// TestAssignPoints_RequiresAdmin - обычный пользователь не может начислять
func TestAssignPoints_RequiresAdmin(t *testing.T) {
	ts := GetTestServer(t)

	participantToken, participant := helpers.CreateAndLoginParticipant(t, ts)

	res, _ := ts.SendRequest(t, "POST", "/api/v1/admin/points/assign", participantToken, map[string]interface{}{
		"user_id": participant.ID,
		"amount":  1000,
		"reason":  "self-grant",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

// TestPointsHistory_Paged - журнал возвращается страницами, новые записи первыми
func TestPointsHistory_Paged(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	participantToken, participant := helpers.CreateAndLoginParticipant(t, ts)

	for i := 0; i < 3; i++ {
		helpers.AssignPointsViaAPI(t, ts, adminToken, participant.ID, 10)
	}

	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/points/history?limit=2", participantToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var history struct {
		Transactions []models.PointsTransaction `json:"transactions"`
		Total        int64                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &history))
	assert.Len(t, history.Transactions, 2)
	assert.Equal(t, int64(3), history.Total)
}
