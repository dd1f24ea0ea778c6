package contracts

import (
	"time"

	"Ecotrack/internal/domain/identity"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	Phone                string `json:"phone" binding:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	OldPassword          string `json:"old_password" binding:"required"`
	NewPassword          string `json:"new_password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

// ProfileUpdateRequest chega como multipart para aceitar a foto junto.
type ProfileUpdateRequest struct {
	Name  *string `form:"name" binding:"omitempty,min=1,max=255"`
	Email *string `form:"email" binding:"omitempty,email,max=255"`
	Phone *string `form:"phone" binding:"omitempty,max=20"`
}

type LoginResponse struct {
	Token     string             `json:"token"`
	TokenType string             `json:"token_type"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      identity.Principal `json:"user"`
}

type CitizenResponse struct {
	identity.Citizen
	PhotoURL string `json:"photo_url,omitempty"`
}
