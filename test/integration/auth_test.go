package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"studyhub_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuthFlow - регистрация, логин, профиль
func TestAuthFlow(t *testing.T) {
	ts := GetTestServer(t)

	email := fmt.Sprintf("researcher_flow_%d@test.com", time.Now().UnixNano())
	registerBody := map[string]interface{}{
		"name":     "Flow Researcher",
		"email":    email,
		"password": "super_password123",
		"role":     "researcher",
	}

	regRes, regBodyStr := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", registerBody)
	assert.Equal(t, http.StatusCreated, regRes.StatusCode)
	assert.Contains(t, regBodyStr, email)
	assert.Contains(t, regBodyStr, `"plan_tier":"free"`)

	loginBody := map[string]interface{}{
		"email":    email,
		"password": "super_password123",
	}
	logRes, logBodyStr := ts.SendRequest(t, "POST", "/api/v1/auth/login", "", loginBody)
	require.Equal(t, http.StatusOK, logRes.StatusCode, logBodyStr)

	var loginResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(logBodyStr), &loginResponse))
	require.NotEmpty(t, loginResponse.AccessToken)
	require.NotEmpty(t, loginResponse.RefreshToken)

	meRes, meBodyStr := ts.SendRequest(t, "GET", "/api/v1/users/me", loginResponse.AccessToken, nil)
	assert.Equal(t, http.StatusOK, meRes.StatusCode)
	assert.Contains(t, meBodyStr, email)
}

// TestRegister_DuplicateEmail - защита от дубликатов
func TestRegister_DuplicateEmail(t *testing.T) {
	ts := GetTestServer(t)

	email := fmt.Sprintf("dup_%d@test.com", time.Now().UnixNano())
	body := map[string]interface{}{
		"name":     "Duplicate User",
		"email":    email,
		"password": "super_password123",
		"role":     "participant",
	}

	res1, _ := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, res1.StatusCode)

	res2, body2 := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, res2.StatusCode)
	assert.Contains(t, body2, "ALREADY_EXISTS")
}

// TestRegister_AdminRoleRejected - админов через публичную регистрацию не создают
func TestRegister_AdminRoleRejected(t *testing.T) {
	ts := GetTestServer(t)

	body := map[string]interface{}{
		"name":     "Wannabe Admin",
		"email":    fmt.Sprintf("admin_wannabe_%d@test.com", time.Now().UnixNano()),
		"password": "super_password123",
		"role":     "admin",
	}

	res, _ := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

// TestLogin_WrongPassword - неверный пароль дает 401 без деталей
func TestLogin_WrongPassword(t *testing.T) {
	ts := GetTestServer(t)

	_, user := helpers.CreateAndLoginParticipant(t, ts)

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    user.Email,
		"password": "wrong_password_123",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, bodyStr, "Invalid email or password")
}

// TestRefreshRotation - refresh-токен одноразовый
func TestRefreshRotation(t *testing.T) {
	ts := GetTestServer(t)

	email := fmt.Sprintf("rotate_%d@test.com", time.Now().UnixNano())
	regBody := map[string]interface{}{
		"name":     "Rotation User",
		"email":    email,
		"password": "super_password123",
		"role":     "participant",
	}
	regRes, _ := ts.SendRequest(t, "POST", "/api/v1/auth/register", "", regBody)
	require.Equal(t, http.StatusCreated, regRes.StatusCode)

	_, logBodyStr := ts.SendRequest(t, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "super_password123",
	})
	var loginResponse struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(logBodyStr), &loginResponse))

	refreshBody := map[string]interface{}{"refresh_token": loginResponse.RefreshToken}

	res1, _ := ts.SendRequest(t, "POST", "/api/v1/auth/refresh", "", refreshBody)
	assert.Equal(t, http.StatusOK, res1.StatusCode)

	// Повторное использование того же токена должно провалиться
	res2, _ := ts.SendRequest(t, "POST", "/api/v1/auth/refresh", "", refreshBody)
	assert.Equal(t, http.StatusUnauthorized, res2.StatusCode)
}
