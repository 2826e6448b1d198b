package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"studyhub_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser создает пользователя с автоматическим хешированием пароля
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) error {
	if user.PasswordHash != "" && !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("Не удалось хешировать пароль: %v", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if user.PlanTier == "" {
		user.PlanTier = models.PlanTierFree
	}

	result := db.Create(user)
	if result.Error != nil {
		t.Logf("ОШИБКА: не удалось создать пользователя %s: %v", user.Email, result.Error)
		return result.Error
	}

	return nil
}

// CreateAndLoginUser создает пользователя и логинит его через API
func CreateAndLoginUser(t *testing.T, ts *TestServer, name, email, password string, role models.UserRole) (string, *models.User) {
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password, // сырой пароль, CreateUser захеширует
		Role:         role,
	}
	err := CreateUser(t, ts.DB, user)
	require.NoError(t, err, "Создание тестового пользователя не должно вызывать ошибку")

	loginBody := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", loginBody)
	require.Equal(t, http.StatusOK, res.StatusCode, "Логин должен быть успешным. Ответ: "+bodyStr)

	var loginResponse struct {
		Token string `json:"access_token"`
	}
	err = json.Unmarshal([]byte(bodyStr), &loginResponse)
	require.NoError(t, err, "Не удалось распарсить JSON")
	require.NotEmpty(t, loginResponse.Token, "Токен не должен быть пустым")

	user.PasswordHash = password
	return loginResponse.Token, user
}

// CreateAndLoginResearcher создает исследователя с уникальным email
func CreateAndLoginResearcher(t *testing.T, ts *TestServer) (string, *models.User) {
	email := fmt.Sprintf("researcher_%d@test.com", time.Now().UnixNano())
	return CreateAndLoginUser(t, ts, "Test Researcher", email, "password123", models.UserRoleResearcher)
}

// CreateAndLoginParticipant создает участника с уникальным email
func CreateAndLoginParticipant(t *testing.T, ts *TestServer) (string, *models.User) {
	email := fmt.Sprintf("participant_%d@test.com", time.Now().UnixNano())
	return CreateAndLoginUser(t, ts, "Test Participant", email, "password123", models.UserRoleParticipant)
}

// CreateAndLoginAdmin создает администратора с уникальным email
func CreateAndLoginAdmin(t *testing.T, ts *TestServer) (string, *models.User) {
	email := fmt.Sprintf("admin_%d@test.com", time.Now().UnixNano())
	return CreateAndLoginUser(t, ts, "Test Admin", email, "password123", models.UserRoleAdmin)
}

// CreateTestStudy создает исследование напрямую в БД
func CreateTestStudy(t *testing.T, db *gorm.DB, researcherID string, status models.StudyStatus) *models.Study {
	study := &models.Study{
		ResearcherID:    researcherID,
		Title:           "Test Study " + fmt.Sprintf("%d", time.Now().UnixNano()),
		Description:     "Test description",
		Status:          status,
		Difficulty:      models.StudyDifficultyNormal,
		Blocks:          4,
		MaxParticipants: 100,
	}
	if err := db.Create(study).Error; err != nil {
		t.Fatalf("Failed to create test study: %v", err)
	}
	return study
}

// AssignPointsViaAPI начисляет баллы пользователю от имени админа
func AssignPointsViaAPI(t *testing.T, ts *TestServer, adminToken, userID string, amount int) {
	body := map[string]interface{}{
		"user_id": userID,
		"amount":  amount,
		"reason":  "test grant",
	}
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/admin/points/assign", adminToken, body)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Начисление должно быть успешным. Ответ: "+bodyStr)
}

// GetBalance читает баланс пользователя напрямую из БД
func GetBalance(t *testing.T, db *gorm.DB, userID string) *models.PointsBalance {
	var balance models.PointsBalance
	err := db.Where("user_id = ?", userID).First(&balance).Error
	require.NoError(t, err, "Баланс должен существовать")
	return &balance
}
