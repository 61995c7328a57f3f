package dto

import (
	"time"

	"github.com/supercivilization/membership-service/internal/domain"
)

// SignupRequest payload for new members.
type SignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileResponse is the public view of a member profile.
type ProfileResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Role          domain.Role          `json:"role"`
	Reputation    int                  `json:"reputation"`
	Status        domain.ProfileStatus `json:"status"`
	EmailVerified bool                 `json:"email_verified"`
	CreatedAt     time.Time            `json:"created_at"`
}

// NewProfileResponse maps a domain profile.
func NewProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Role:          p.Role,
		Reputation:    p.Reputation,
		Status:        p.Status,
		EmailVerified: p.EmailVerifiedAt != nil,
		CreatedAt:     p.CreatedAt,
	}
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// EmailVerifyRequest payload for confirming an email address.
type EmailVerifyRequest struct {
	Token string `json:"token"`
}
