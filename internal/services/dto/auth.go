package dto

import "studyhub_backend/internal/models"

type RegisterRequest struct {
	Email    string          `json:"email" binding:"required" validate:"required,email"`
	Name     string          `json:"name" validate:"required,min=2,max=100"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required,is-user-role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *UserProfile `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UserProfile - публичное представление пользователя (без хеша пароля)
type UserProfile struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Role     models.UserRole   `json:"role"`
	Status   models.UserStatus `json:"status"`
	PlanTier models.PlanTier   `json:"plan_tier"`
}

func NewUserProfile(user *models.User) *UserProfile {
	return &UserProfile{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		Status:   user.Status,
		PlanTier: user.PlanTier,
	}
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=pending active suspended banned"`
}

type UpdatePlanTierRequest struct {
	PlanTier models.PlanTier `json:"plan_tier" validate:"required,is-plan-tier"`
}
