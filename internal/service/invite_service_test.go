package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/supercivilization/membership-service/internal/domain"
	"github.com/supercivilization/membership-service/internal/events"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

func newInviteFixture() (*InviteService, *mockInviteRepo, *mockProfileRepo, *recordingDispatcher) {
	invites := newMockInviteRepo()
	profiles := newMockProfileRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewInviteService(testConfig(), InviteDependencies{
		InviteRepo:  invites,
		ProfileRepo: profiles,
		Limiter:     &stubLimiter{allow: true},
		Dispatcher:  dispatcher,
	})
	return svc, invites, profiles, dispatcher
}

func activeMember(profiles *mockProfileRepo) *domain.Profile {
	return profiles.add(&domain.Profile{
		Name:   "Ada",
		Email:  "ada@example.com",
		Role:   domain.RoleMember,
		Status: domain.ProfileStatusActive,
	})
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return de.Code
}

func TestGenerateInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateInviteCode()
		if err != nil {
			t.Fatalf("GenerateInviteCode: %v", err)
		}
		if len(code) != domain.InviteCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), domain.InviteCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(domain.InviteCodeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected distinct codes across draws")
	}
}

func TestIssueInviteRequiresActiveIssuer(t *testing.T) {
	svc, _, profiles, _ := newInviteFixture()
	pending := profiles.add(&domain.Profile{Status: domain.ProfileStatusPending})

	_, err := svc.IssueInvite(context.Background(), pending, 0)
	if code := domainCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("error code = %s, want FORBIDDEN", code)
	}
}

func TestIssueInviteDefaultTTL(t *testing.T) {
	svc, _, profiles, dispatcher := newInviteFixture()
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	issuer := activeMember(profiles)

	invite, err := svc.IssueInvite(context.Background(), issuer, 0)
	if err != nil {
		t.Fatalf("IssueInvite: %v", err)
	}
	want := issued.Add(24 * time.Hour)
	if !invite.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", invite.ExpiresAt, want)
	}
	if invite.IssuerID != issuer.ID {
		t.Fatalf("IssuerID = %s, want %s", invite.IssuerID, issuer.ID)
	}
	if dispatcher.count(events.EventInviteIssued) != 1 {
		t.Fatal("expected one invite_issued event")
	}
}

func TestIssueInviteRejectsExcessiveTTL(t *testing.T) {
	svc, _, profiles, _ := newInviteFixture()
	issuer := activeMember(profiles)

	_, err := svc.IssueInvite(context.Background(), issuer, 169)
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("error code = %s, want VALIDATION_FAILED", code)
	}
}

func TestValidateInvite(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Hour)

	cases := []struct {
		name       string
		invite     *domain.Invite
		code       string
		wantValid  bool
		wantReason string
	}{
		{
			name:       "unknown code",
			code:       "NOPE0000",
			wantReason: ReasonInvalidCode,
		},
		{
			name:      "fresh code",
			invite:    &domain.Invite{Code: "FRESH001", ExpiresAt: now.Add(time.Hour)},
			code:      "FRESH001",
			wantValid: true,
		},
		{
			name:       "used code",
			invite:     &domain.Invite{Code: "USED0001", Consumed: true, ConsumedAt: &used, ExpiresAt: now.Add(time.Hour)},
			code:       "USED0001",
			wantReason: ReasonUsed,
		},
		{
			name:       "expired code",
			invite:     &domain.Invite{Code: "GONE0001", ExpiresAt: now.Add(-time.Minute)},
			code:       "GONE0001",
			wantReason: ReasonExpired,
		},
		{
			// A code that is both expired and consumed reports expiry.
			name:       "expired beats used",
			invite:     &domain.Invite{Code: "BOTH0001", Consumed: true, ConsumedAt: &used, ExpiresAt: now.Add(-time.Minute)},
			code:       "BOTH0001",
			wantReason: ReasonExpired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, invites, _, _ := newInviteFixture()
			svc.now = func() time.Time { return now }
			if tc.invite != nil {
				invites.invites[tc.invite.Code] = tc.invite
			}

			result, err := svc.ValidateInvite(context.Background(), "1.2.3.4", tc.code)
			if err != nil {
				t.Fatalf("ValidateInvite: %v", err)
			}
			if result.Valid != tc.wantValid {
				t.Fatalf("Valid = %v, want %v", result.Valid, tc.wantValid)
			}
			if result.Reason != tc.wantReason {
				t.Fatalf("Reason = %q, want %q", result.Reason, tc.wantReason)
			}
		})
	}
}

func TestValidateInviteThrottled(t *testing.T) {
	svc, _, _, _ := newInviteFixture()
	svc.limiter = &stubLimiter{allow: false}

	_, err := svc.ValidateInvite(context.Background(), "1.2.3.4", "ANYCODE1")
	if code := domainCode(t, err); code != "RATE_LIMITED" {
		t.Fatalf("error code = %s, want RATE_LIMITED", code)
	}
}

func TestValidateInviteSkipsThrottleWithoutClientKey(t *testing.T) {
	svc, invites, _, _ := newInviteFixture()
	limiter := &stubLimiter{allow: false}
	svc.limiter = limiter
	invites.invites["FRESH001"] = &domain.Invite{Code: "FRESH001", ExpiresAt: time.Now().Add(time.Hour)}

	result, err := svc.ValidateInvite(context.Background(), "", "FRESH001")
	if err != nil {
		t.Fatalf("ValidateInvite: %v", err)
	}
	if !result.Valid {
		t.Fatal("expected internal validation to bypass the limiter")
	}
	if limiter.calls != 0 {
		t.Fatalf("limiter called %d times, want 0", limiter.calls)
	}
}
