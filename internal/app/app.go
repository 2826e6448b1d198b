package app

import (
	"context"
	"errors"
	"fmt"

	"studyhub_backend/database"
	"studyhub_backend/internal/config"
	"studyhub_backend/internal/email"
	"studyhub_backend/internal/handlers"
	"studyhub_backend/internal/logger"
	"studyhub_backend/internal/middleware"
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/repositories"
	"studyhub_backend/internal/routes"
	"studyhub_backend/internal/services"
	"studyhub_backend/internal/validator"
	"studyhub_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		// Без админа платформа неуправляема - не запускаем сервер
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	serviceContainer := initializeServices(cfg)
	ginRouter := SetupRouter(gormDB, serviceContainer)

	// Фоновые задачи леджера: свип истекших баллов, сброс счетчиков
	pointsWorker := workers.NewPointsWorker(gormDB, serviceContainer.PointsService, repositories.NewUsageRepository())
	if err := pointsWorker.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start points worker", "error", err)
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter собирает gin-роутер с полным набором middleware и маршрутов.
// Используется и в Run, и в интеграционных тестах.
func SetupRouter(gormDB *gorm.DB, sc *services.ServiceContainer) *gin.Engine {
	appHandlers := initializeHandlers(sc)
	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers)
	return ginRouter
}

// InitializeServices собирает контейнер сервисов поверх конфига.
func InitializeServices(cfg *config.Config) *services.ServiceContainer {
	return initializeServices(cfg)
}

func initializeServices(cfg *config.Config) *services.ServiceContainer {
	var emailService email.Provider
	if cfg.Email.Enabled {
		emailService = email.NewSMTPProvider(cfg)
	} else {
		logger.Warn("Email delivery disabled, using mock provider")
		emailService = &MockEmailProvider{}
	}

	userRepo := repositories.NewUserRepository()
	refreshTokenRepo := repositories.NewRefreshTokenRepository()
	studyRepo := repositories.NewStudyRepository()
	usageRepo := repositories.NewUsageRepository()
	pointsRepo := repositories.NewPointsRepository()

	payoutService := services.NewPayoutService(cfg)
	authService := services.NewAuthService(userRepo, refreshTokenRepo)
	userService := services.NewUserService(userRepo)
	usageService := services.NewUsageService(usageRepo)
	pointsService := services.NewPointsService(pointsRepo, userRepo, payoutService, emailService)
	studyService := services.NewStudyService(studyRepo, userRepo, usageService, pointsService)

	return &services.ServiceContainer{
		AuthService:   authService,
		UserService:   userService,
		UsageService:  usageService,
		PointsService: pointsService,
		StudyService:  studyService,
		PayoutService: payoutService,
		EmailService:  emailService,
	}
}

func initializeHandlers(sc *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:   handlers.NewAuthHandler(baseHandler, sc.AuthService),
		UserHandler:   handlers.NewUserHandler(baseHandler, sc.UserService),
		PlanHandler:   handlers.NewPlanHandler(baseHandler, sc.UsageService, sc.UserService),
		PointsHandler: handlers.NewPointsHandler(baseHandler, sc.PointsService),
		StudyHandler:  handlers.NewStudyHandler(baseHandler, sc.StudyService, sc.UserService),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)

	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		Name:         "Platform Administrator",
		PasswordHash: string(hashedPassword),
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
		PlanTier:     models.PlanTierEnterprise,
	}

	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("Successfully created first admin user", "email", adminEmail)
	return nil
}
