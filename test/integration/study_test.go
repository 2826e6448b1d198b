package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"studyhub_backend/internal/models"
	"studyhub_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStudyLifecycle - создание, публикация, заявка участника, завершение с наградой
func TestStudyLifecycle(t *testing.T) {
	ts := GetTestServer(t)

	researcherToken, _ := helpers.CreateAndLoginResearcher(t, ts)
	participantToken, participant := helpers.CreateAndLoginParticipant(t, ts)

	// Создание: черновик
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/studies", researcherToken, map[string]interface{}{
		"title":            "Reward lifecycle study",
		"description":      "full lifecycle",
		"difficulty":       "normal",
		"blocks":           4,
		"max_participants": 10,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var study models.Study
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &study))
	assert.Equal(t, models.StudyStatusDraft, study.Status)

	// Заявки в черновик не принимаются
	res, _ = ts.SendRequest(t, "POST", "/api/v1/studies/"+study.ID+"/apply", participantToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// Публикация
	res, bodyStr = ts.SendRequest(t, "PUT", "/api/v1/studies/"+study.ID, researcherToken, map[string]interface{}{
		"status": "active",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	// Заявка участника
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/studies/"+study.ID+"/apply", participantToken, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	// Повторная заявка - конфликт
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/studies/"+study.ID+"/apply", participantToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode, bodyStr)

	// Завершение участия начисляет награду:
	// (50 + 4 блока * 5) * 1.0 = 70 баллов
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/studies/"+study.ID+"/complete/"+participant.ID, researcherToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	balance := helpers.GetBalance(t, ts.DB, participant.ID)
	assert.Equal(t, 70, balance.AvailablePoints)
	assert.Equal(t, 70, balance.TotalPoints)

	var reward models.PointsTransaction
	err := ts.DB.Where("user_id = ? AND type = ?", participant.ID, models.TransactionTypeStudyReward).
		First(&reward).Error
	require.NoError(t, err)
	assert.Equal(t, 70, reward.Amount)
	require.NotNil(t, reward.StudyID)
	assert.Equal(t, study.ID, *reward.StudyID)

	// Повторное завершение - конфликт
	res, _ = ts.SendRequest(t, "POST", "/api/v1/studies/"+study.ID+"/complete/"+participant.ID, researcherToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

// TestStudy_OwnershipEnforced - чужие исследования нельзя менять
func TestStudy_OwnershipEnforced(t *testing.T) {
	ts := GetTestServer(t)

	_, owner := helpers.CreateAndLoginResearcher(t, ts)
	otherToken, _ := helpers.CreateAndLoginResearcher(t, ts)

	study := helpers.CreateTestStudy(t, ts.DB, owner.ID, models.StudyStatusDraft)

	res, _ := ts.SendRequest(t, "PUT", "/api/v1/studies/"+study.ID, otherToken, map[string]interface{}{
		"title": "Hijacked title",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = ts.SendRequest(t, "DELETE", "/api/v1/studies/"+study.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

// TestStudy_ParticipantCannotCreate - участники не создают исследования
func TestStudy_ParticipantCannotCreate(t *testing.T) {
	ts := GetTestServer(t)

	participantToken, _ := helpers.CreateAndLoginParticipant(t, ts)

	res, _ := ts.SendRequest(t, "POST", "/api/v1/studies", participantToken, map[string]interface{}{
		"title":       "Forbidden study",
		"description": "should not exist",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

// TestRecordingSession_MinutesGate - лимит минут записи free-плана (60)
func TestRecordingSession_MinutesGate(t *testing.T) {
	ts := GetTestServer(t)

	researcherToken, researcher := helpers.CreateAndLoginResearcher(t, ts)
	study := helpers.CreateTestStudy(t, ts.DB, researcher.ID, models.StudyStatusActive)

	// Сессия в пределах лимита
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/studies/"+study.ID+"/recordings", researcherToken, map[string]interface{}{
		"estimated_minutes": 40,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var session models.RecordingSession
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &session))

	// Вторая сессия превысила бы лимит: 40 + 30 > 60
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/studies/"+study.ID+"/recordings", researcherToken, map[string]interface{}{
		"estimated_minutes": 30,
	})
	assert.Equal(t, http.StatusPaymentRequired, res.StatusCode)
	assert.Contains(t, bodyStr, "PLAN_LIMIT_EXCEEDED")

	// Остановка с перерасходом дописывает минуты в счетчик
	res, bodyStr = ts.SendRequest(t, "PUT", "/api/v1/studies/recordings/"+session.ID+"/stop", researcherToken, map[string]interface{}{
		"actual_minutes": 45,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	var usage models.UsageRecord
	require.NoError(t, ts.DB.Where("user_id = ?", researcher.ID).First(&usage).Error)
	assert.Equal(t, 45, usage.RecordingMinutesUsed)
}
