package domain

import "time"

// AdminAction labels privileged mutations in the audit trail.
type AdminAction string

const (
	AdminActionRoleChange AdminAction = "ROLE_CHANGE"
	AdminActionBan        AdminAction = "BAN"
)

// AdminLog is an immutable audit entry recording a privileged mutation.
// Exactly one row is written per successful role change or ban.
type AdminLog struct {
	ID          string
	AdminID     string
	Action      AdminAction
	TargetTable string
	TargetID    string
	Details     map[string]any
	CreatedAt   time.Time
}
