package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"studyhub_backend/database"
	"studyhub_backend/internal/app"
	"studyhub_backend/internal/config"
	"studyhub_backend/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TestServer - HTTP-сервер поверх тестовой БД
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
}

// NewTestServer создает и настраивает тестовый сервер и БД.
// Если DATABASE_URL не задан, тест пропускается.
func NewTestServer(t *testing.T) *TestServer {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL is not set, skipping integration test")
	}

	config.LoadConfig()
	cfg := config.GetConfig()
	logger.Init(cfg.Server.Env)
	dsn := cfg.Database.DSN

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Не удалось подключиться к тестовой БД (%s): %v", dsn, err)
	}

	if err := database.AutoMigrateWith(db); err != nil {
		t.Fatalf("Не удалось выполнить миграцию тестовой БД: %v", err)
	}

	serviceContainer := app.InitializeServices(cfg)
	router := app.SetupRouter(db, serviceContainer)

	server := httptest.NewServer(router)

	log.Printf("Тестовый сервер запущен, тестовая БД (%s) настроена.", dsn)

	return &TestServer{
		Server: server,
		DB:     db,
	}
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	sqlDB, _ := ts.DB.DB()
	sqlDB.Close()
}

// ClearTables очищает все таблицы.
func (ts *TestServer) ClearTables() {
	err := ts.DB.Exec(`TRUNCATE TABLE users, refresh_tokens, studies, study_participants,
		recording_sessions, usage_records, points_balances, points_transactions,
		withdrawal_requests RESTART IDENTITY CASCADE`).Error
	if err != nil {
		log.Fatalf("Не удалось очистить таблицы: %v", err)
	}
}

// SendRequest отправляет JSON-запрос с опциональным Bearer-токеном
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	url := ts.Server.URL + path

	var reqBody io.Reader = nil
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}
	defer res.Body.Close()

	return res, string(resBodyBytes)
}
