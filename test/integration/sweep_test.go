package integration_test

import (
	"net/http"
	"testing"
	"time"

	"studyhub_backend/internal/models"
	"studyhub_backend/internal/repositories"
	"studyhub_backend/internal/services"
	"studyhub_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sweepService() services.PointsService {
	return services.NewPointsService(
		repositories.NewPointsRepository(),
		repositories.NewUserRepository(),
		nil, nil)
}

// TestSweepExpiredPoints_ClampAndInvariant - свип истечения переносит из
// available в expired не больше, чем осталось доступным, сохраняя инвариант
func TestSweepExpiredPoints_ClampAndInvariant(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	token, user := helpers.CreateAndLoginParticipant(t, ts)
	helpers.AssignPointsViaAPI(t, ts, adminToken, user.ID, 100)

	// Часть начисления уже потрачена: истечь может только остаток
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/points/consume", token, map[string]interface{}{
		"amount": 30,
		"reason": "premium study access",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	// Срок зачисления истек вчера
	expired := time.Now().Add(-24 * time.Hour)
	require.NoError(t, ts.DB.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, models.TransactionTypeAdminAssigned).
		Update("expires_at", expired).Error)

	swept, err := sweepService().SweepExpiredPoints(ts.DB, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	balance := helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 0, balance.AvailablePoints)
	assert.Equal(t, 30, balance.UsedPoints)
	assert.Equal(t, 70, balance.ExpiredPoints)
	assert.Equal(t, balance.TotalPoints,
		balance.AvailablePoints+balance.UsedPoints+balance.ExpiredPoints)

	// В журнале списание ровно на остаток
	var record models.PointsTransaction
	require.NoError(t, ts.DB.Where("user_id = ? AND type = ?",
		user.ID, models.TransactionTypeExpired).First(&record).Error)
	assert.Equal(t, -70, record.Amount)
	assert.Equal(t, 0, record.BalanceAfter)
}

// TestSweepExpiredPoints_SecondSweepIsNoop - обработанное зачисление
// помечается и не списывается повторно
func TestSweepExpiredPoints_SecondSweepIsNoop(t *testing.T) {
	ts := GetTestServer(t)

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	_, user := helpers.CreateAndLoginParticipant(t, ts)
	helpers.AssignPointsViaAPI(t, ts, adminToken, user.ID, 50)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, ts.DB.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, models.TransactionTypeAdminAssigned).
		Update("expires_at", expired).Error)

	svc := sweepService()

	swept, err := svc.SweepExpiredPoints(ts.DB, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	// Повторный свип ничего не находит
	swept, err = svc.SweepExpiredPoints(ts.DB, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	balance := helpers.GetBalance(t, ts.DB, user.ID)
	assert.Equal(t, 0, balance.AvailablePoints)
	assert.Equal(t, 50, balance.ExpiredPoints)
	assert.Equal(t, 50, balance.TotalPoints)

	var expiredRows int64
	require.NoError(t, ts.DB.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, models.TransactionTypeExpired).
		Count(&expiredRows).Error)
	assert.EqualValues(t, 1, expiredRows)
}
