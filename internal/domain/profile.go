package domain

import "time"

// Role enumerates member privilege levels.
type Role string

const (
	RoleMember     Role = "MEMBER"
	RoleModerator  Role = "MODERATOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

// ValidRole reports whether the role is a known value.
func ValidRole(role Role) bool {
	switch role {
	case RoleMember, RoleModerator, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role carries admin privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// CanGrant reports whether an actor holding this role may assign newRole to
// another member. Granting ADMIN is reserved to SUPERADMIN; every other
// assignment only requires the actor to be an admin.
func (r Role) CanGrant(newRole Role) bool {
	if !r.IsAdmin() {
		return false
	}
	if newRole == RoleAdmin {
		return r == RoleSuperadmin
	}
	return true
}

// ProfileStatus enumerates member lifecycle states.
type ProfileStatus string

const (
	ProfileStatusPending   ProfileStatus = "PENDING"
	ProfileStatusActive    ProfileStatus = "ACTIVE"
	ProfileStatusSuspended ProfileStatus = "SUSPENDED"
	ProfileStatusBanned    ProfileStatus = "BANNED"
	ProfileStatusRejected  ProfileStatus = "REJECTED"
)

// ValidStatus reports whether the status is a known value.
func ValidStatus(status ProfileStatus) bool {
	switch status {
	case ProfileStatusPending, ProfileStatusActive, ProfileStatusSuspended,
		ProfileStatusBanned, ProfileStatusRejected:
		return true
	}
	return false
}

// Profile is the domain model for a member account. Profiles are created as
// PENDING at signup and are never hard-deleted.
type Profile struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	Reputation      int
	Status          ProfileStatus
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the member may act (issue invites, verify peers).
func (p *Profile) IsActive() bool {
	return p != nil && p.Status == ProfileStatusActive
}
