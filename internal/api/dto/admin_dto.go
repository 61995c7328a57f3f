package dto

import (
	"time"

	"github.com/supercivilization/membership-service/internal/domain"
)

// UpdateRoleRequest payload for role changes.
type UpdateRoleRequest struct {
	Role domain.Role `json:"role"`
}

// BanRequest payload for banning a member.
type BanRequest struct {
	Reason string `json:"reason"`
}

// AdminLogResponse is one audit trail entry.
type AdminLogResponse struct {
	ID          string             `json:"id"`
	AdminID     string             `json:"admin_id"`
	Action      domain.AdminAction `json:"action"`
	TargetTable string             `json:"target_table"`
	TargetID    string             `json:"target_id"`
	Details     map[string]any     `json:"details,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewAdminLogResponse maps a domain entry.
func NewAdminLogResponse(entry *domain.AdminLog) AdminLogResponse {
	return AdminLogResponse{
		ID:          entry.ID,
		AdminID:     entry.AdminID,
		Action:      entry.Action,
		TargetTable: entry.TargetTable,
		TargetID:    entry.TargetID,
		Details:     entry.Details,
		CreatedAt:   entry.CreatedAt,
	}
}
