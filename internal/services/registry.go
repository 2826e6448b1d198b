package services

import (
	"studyhub_backend/internal/email"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService   AuthService
	UserService   UserService
	UsageService  UsageService
	PointsService PointsService
	StudyService  StudyService
	PayoutService PayoutService
	EmailService  email.Provider
}
