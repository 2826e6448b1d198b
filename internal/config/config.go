package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты жизни access-токена
	} `yaml:"jwt"`

	Email struct {
		Enabled      bool   `yaml:"enabled"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Payout struct {
		// Шлюз выплат по умолчанию отключен: все вызовы возвращают
		// GATEWAY_UNAVAILABLE, заявки обрабатываются только вручную.
		Enabled   bool   `yaml:"enabled"`
		StripeKey string `yaml:"stripe_key"`
	} `yaml:"payout"`

	// Первый админ создается при старте, если его еще нет.
	// Значения берутся только из окружения (.env), не из yaml.
	FirstAdminEmail    string `yaml:"-"`
	FirstAdminPassword string `yaml:"-"`

	Workers struct {
		// Cron-выражения (robfig/cron, стандартный 5-польный формат)
		ExpirySweepSpec string `yaml:"expiry_sweep_spec"` // свип истекших баллов
		UsageResetSpec  string `yaml:"usage_reset_spec"`  // ежемесячный сброс счетчиков
	} `yaml:"workers"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	// .env нужен только для локальной разработки, отсутствие файла - не ошибка
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		log.Println("Загрузка из config.yaml (режим НЕ-тест)")

		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	log.Println("Загрузка конфигурации из переменных окружения (режим теста)")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Email.Enabled = false
	cfg.Email.FromEmail = "noreply@studyhub.test"
	cfg.Payout.Enabled = false

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.Workers.ExpirySweepSpec == "" {
		cfg.Workers.ExpirySweepSpec = "0 3 * * *" // каждый день в 03:00
	}
	if cfg.Workers.UsageResetSpec == "" {
		cfg.Workers.UsageResetSpec = "0 0 1 * *" // первое число месяца
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
