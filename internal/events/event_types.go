package events

import (
	"time"

	"github.com/supercivilization/membership-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberSignedUp  EventType = "member_signed_up"
	EventInviteIssued    EventType = "invite_issued"
	EventInviteRedeemed  EventType = "invite_redeemed"
	EventMemberActivated EventType = "member_activated"
	EventMemberRejected  EventType = "member_rejected"
	EventMemberBanned    EventType = "member_banned"
	EventRoleChanged     EventType = "role_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ProfileID string      `json:"profile_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MemberSignedUpPayload payload.
type MemberSignedUpPayload struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
}

// InviteIssuedPayload payload.
type InviteIssuedPayload struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InviteRedeemedPayload payload.
type InviteRedeemedPayload struct {
	Code     string `json:"code"`
	IssuerID string `json:"issuer_id"`
}

// MemberActivatedPayload payload.
type MemberActivatedPayload struct {
	Confirmations int `json:"confirmations"`
}

// MemberRejectedPayload payload.
type MemberRejectedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// MemberBannedPayload payload.
type MemberBannedPayload struct {
	Reason string `json:"reason"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
