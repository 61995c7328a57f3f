package dto

import (
	"time"

	"github.com/supercivilization/membership-service/internal/domain"
)

// VerificationRequest payload for recording an attestation.
type VerificationRequest struct {
	InviteeID string `json:"invitee_id"`
	Confirmed *bool  `json:"confirmed"`
	Reason    string `json:"reason,omitempty"`
}

// VerificationResponse describes a recorded attestation and its effect.
type VerificationResponse struct {
	ID        string                `json:"id"`
	InviteeID string                `json:"invitee_id"`
	Confirmed bool                  `json:"confirmed"`
	Reason    *string               `json:"reason,omitempty"`
	NewStatus *domain.ProfileStatus `json:"new_status,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}
