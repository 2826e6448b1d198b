package integration_test

import (
	"log"
	"os"
	"sync"
	"testing"

	"studyhub_backend/test/helpers"
)

// Глобальные переменные для общего состояния
var (
	globalTestServer *helpers.TestServer
	serverOnce       sync.Once
)

// GetTestServer возвращает тестовый сервер (создает при первом вызове).
// Тесты требуют PostgreSQL: DATABASE_URL должен указывать на тестовую базу.
func GetTestServer(t *testing.T) *helpers.TestServer {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL is not set, skipping integration test")
	}

	serverOnce.Do(func() {
		os.Setenv("SERVER_ENV", "test")
		if os.Getenv("JWT_SECRET") == "" {
			os.Setenv("JWT_SECRET", "integration_test_secret_key_12345")
		}

		log.Println("--- [GetTestServer] Initializing test server... ---")
		globalTestServer = helpers.NewTestServer(t)
		globalTestServer.ClearTables()
		log.Println("--- [GetTestServer] Test server ready ---")
	})
	return globalTestServer
}

// TestMain только для глобальной очистки
func TestMain(m *testing.M) {
	code := m.Run()

	if globalTestServer != nil {
		log.Println("--- [TestMain] Cleaning up... ---")
		globalTestServer.Close()
	}

	os.Exit(code)
}
