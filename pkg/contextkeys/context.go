package contextkeys

// Используем кастомный тип, чтобы избежать коллизий с другими пакетами
type contextKey string

// DBContextKey - ключ, по которому в context хранится *gorm.DB
// (пул соединений либо транзакция, подмененная тестовым харнессом)
const DBContextKey = contextKey("db")
