package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"studyhub_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createStudyBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":            title,
		"description":      "integration test study",
		"difficulty":       "normal",
		"blocks":           4,
		"max_participants": 50,
	}
}

// TestPlanGate_StudyLimit - free-план позволяет 3 исследования, четвертое дает 402
func TestPlanGate_StudyLimit(t *testing.T) {
	ts := GetTestServer(t)

	token, user := helpers.CreateAndLoginResearcher(t, ts)

	for i := 0; i < 3; i++ {
		res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/studies", token, createStudyBody("Study under limit"))
		require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)
	}

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/studies", token, createStudyBody("One too many"))
	assert.Equal(t, http.StatusPaymentRequired, res.StatusCode)
	assert.Contains(t, bodyStr, "PLAN_LIMIT_EXCEEDED")

	var errResponse struct {
		Error struct {
			Details struct {
				CurrentPlan  string `json:"current_plan"`
				RequiredPlan string `json:"required_plan"`
				CurrentUsage int    `json:"current_usage"`
				PlanLimit    int    `json:"plan_limit"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &errResponse))
	assert.Equal(t, "free", errResponse.Error.Details.CurrentPlan)
	assert.Equal(t, "basic", errResponse.Error.Details.RequiredPlan)
	assert.Equal(t, 3, errResponse.Error.Details.CurrentUsage)
	assert.Equal(t, 3, errResponse.Error.Details.PlanLimit)

	// После апгрейда до basic лимит отпускает
	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	upRes, upBody := ts.SendRequest(t, "PATCH", "/api/v1/admin/users/"+user.ID+"/plan", adminToken, map[string]interface{}{
		"plan_tier": "basic",
	})
	require.Equal(t, http.StatusOK, upRes.StatusCode, upBody)

	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/studies", token, createStudyBody("Fourth after upgrade"))
	assert.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)
}

// TestPlanGate_ExportRequiresPaidPlan - экспорт закрыт для free-плана
func TestPlanGate_ExportRequiresPaidPlan(t *testing.T) {
	ts := GetTestServer(t)

	token, user := helpers.CreateAndLoginResearcher(t, ts)
	study := helpers.CreateTestStudy(t, ts.DB, user.ID, "active")

	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/studies/"+study.ID+"/export", token, nil)
	assert.Equal(t, http.StatusPaymentRequired, res.StatusCode)
	assert.Contains(t, bodyStr, "PLAN_LIMIT_EXCEEDED")

	adminToken, _ := helpers.CreateAndLoginAdmin(t, ts)
	upRes, _ := ts.SendRequest(t, "PATCH", "/api/v1/admin/users/"+user.ID+"/plan", adminToken, map[string]interface{}{
		"plan_tier": "basic",
	})
	require.Equal(t, http.StatusOK, upRes.StatusCode)

	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/studies/"+study.ID+"/export", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	assert.Contains(t, bodyStr, study.Title)
}

// TestPlanInfo - сводка по плану и использованию
func TestPlanInfo(t *testing.T) {
	ts := GetTestServer(t)

	token, _ := helpers.CreateAndLoginResearcher(t, ts)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/studies", token, createStudyBody("Usage counter study"))
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	infoRes, infoBody := ts.SendRequest(t, "GET", "/api/v1/plans/my/info", token, nil)
	require.Equal(t, http.StatusOK, infoRes.StatusCode)

	var info struct {
		Plan struct {
			ID         string `json:"id"`
			MaxStudies int    `json:"max_studies"`
		} `json:"plan"`
		StudiesRemaining int `json:"studies_remaining"`
	}
	require.NoError(t, json.Unmarshal([]byte(infoBody), &info))
	assert.Equal(t, "free", info.Plan.ID)
	assert.Equal(t, 3, info.Plan.MaxStudies)
	assert.Equal(t, 2, info.StudiesRemaining)
}

// TestPlanCatalog - публичный каталог планов
func TestPlanCatalog(t *testing.T) {
	ts := GetTestServer(t)

	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/plans", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	for _, tier := range []string{"free", "basic", "pro", "enterprise"} {
		assert.Contains(t, bodyStr, tier)
	}

	res, _ = ts.SendRequest(t, "GET", "/api/v1/plans/platinum", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
