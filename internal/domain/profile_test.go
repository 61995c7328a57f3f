package domain

import "testing"

func TestCanGrant(t *testing.T) {
	cases := []struct {
		actor   Role
		newRole Role
		want    bool
	}{
		{RoleSuperadmin, RoleAdmin, true},
		{RoleSuperadmin, RoleModerator, true},
		{RoleSuperadmin, RoleMember, true},
		{RoleAdmin, RoleAdmin, false},
		{RoleAdmin, RoleModerator, true},
		{RoleAdmin, RoleMember, true},
		{RoleModerator, RoleMember, false},
		{RoleMember, RoleMember, false},
	}
	for _, tc := range cases {
		if got := tc.actor.CanGrant(tc.newRole); got != tc.want {
			t.Errorf("%s.CanGrant(%s) = %v, want %v", tc.actor, tc.newRole, got, tc.want)
		}
	}
}

func TestIsActive(t *testing.T) {
	var nilProfile *Profile
	if nilProfile.IsActive() {
		t.Error("nil profile must not be active")
	}
	for _, status := range []ProfileStatus{ProfileStatusPending, ProfileStatusSuspended, ProfileStatusBanned, ProfileStatusRejected} {
		p := &Profile{Status: status}
		if p.IsActive() {
			t.Errorf("%s profile must not be active", status)
		}
	}
	if !(&Profile{Status: ProfileStatusActive}).IsActive() {
		t.Error("ACTIVE profile must be active")
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []Role{RoleMember, RoleModerator, RoleAdmin, RoleSuperadmin} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%s) = false", role)
		}
	}
	if ValidRole(Role("OVERLORD")) {
		t.Error("unknown role must be invalid")
	}
}
