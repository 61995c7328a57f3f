package dto

import (
	"time"

	"github.com/supercivilization/membership-service/internal/domain"
)

// IssueInviteRequest payload; TTL defaults server-side when omitted.
type IssueInviteRequest struct {
	TTLHours int `json:"ttl_hours"`
}

// InviteResponse is the owner's view of an issued code.
type InviteResponse struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Consumed   bool       `json:"consumed"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewInviteResponse maps a domain invite.
func NewInviteResponse(inv *domain.Invite) InviteResponse {
	return InviteResponse{
		ID:         inv.ID,
		Code:       inv.Code,
		Consumed:   inv.Consumed,
		ExpiresAt:  inv.ExpiresAt,
		ConsumedAt: inv.ConsumedAt,
		CreatedAt:  inv.CreatedAt,
	}
}
