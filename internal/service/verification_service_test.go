package service

import (
	"context"
	"testing"

	"github.com/supercivilization/membership-service/internal/domain"
	"github.com/supercivilization/membership-service/internal/events"
)

type verificationFixture struct {
	svc        *VerificationService
	profiles   *mockProfileRepo
	dispatcher *recordingDispatcher
	invitee    *domain.Profile
	verifierA  *domain.Profile
	verifierB  *domain.Profile
}

func newVerificationFixture() *verificationFixture {
	profiles := newMockProfileRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewVerificationService(VerificationDependencies{
		VerificationRepo: newMockVerificationRepo(profiles),
		ProfileRepo:      profiles,
		Dispatcher:       dispatcher,
	})
	return &verificationFixture{
		svc:        svc,
		profiles:   profiles,
		dispatcher: dispatcher,
		invitee:    profiles.add(&domain.Profile{Name: "Newcomer", Status: domain.ProfileStatusPending}),
		verifierA:  profiles.add(&domain.Profile{Name: "Vera", Status: domain.ProfileStatusActive}),
		verifierB:  profiles.add(&domain.Profile{Name: "Vern", Status: domain.ProfileStatusActive}),
	}
}

func TestTwoConfirmationsActivate(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	first, err := f.svc.RecordVerification(ctx, f.verifierA, f.invitee.ID, true, "met in person")
	if err != nil {
		t.Fatalf("first confirmation: %v", err)
	}
	if first.NewStatus != nil {
		t.Fatalf("one confirmation transitioned the invitee to %v", *first.NewStatus)
	}
	if f.invitee.Status != domain.ProfileStatusPending {
		t.Fatalf("status after one confirmation = %s, want PENDING", f.invitee.Status)
	}

	second, err := f.svc.RecordVerification(ctx, f.verifierB, f.invitee.ID, true, "")
	if err != nil {
		t.Fatalf("second confirmation: %v", err)
	}
	if second.NewStatus == nil || *second.NewStatus != domain.ProfileStatusActive {
		t.Fatal("second confirmation should report activation")
	}
	if f.invitee.Status != domain.ProfileStatusActive {
		t.Fatalf("status = %s, want ACTIVE", f.invitee.Status)
	}
	if f.dispatcher.count(events.EventMemberActivated) != 1 {
		t.Fatal("expected exactly one member_activated event")
	}
}

func TestSingleRejectionIsTerminal(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	outcome, err := f.svc.RecordVerification(ctx, f.verifierA, f.invitee.ID, false, "could not confirm identity")
	if err != nil {
		t.Fatalf("rejection: %v", err)
	}
	if outcome.NewStatus == nil || *outcome.NewStatus != domain.ProfileStatusRejected {
		t.Fatal("rejection should report the REJECTED transition")
	}
	if f.invitee.Status != domain.ProfileStatusRejected {
		t.Fatalf("status = %s, want REJECTED", f.invitee.Status)
	}

	// Later confirmations are still recorded but cannot resurrect the member.
	for _, verifier := range []*domain.Profile{f.verifierA, f.verifierB} {
		outcome, err = f.svc.RecordVerification(ctx, verifier, f.invitee.ID, true, "")
		if err != nil {
			t.Fatalf("confirmation after rejection: %v", err)
		}
		if outcome.NewStatus != nil {
			t.Fatal("confirmation after rejection must not transition the invitee")
		}
	}
	if f.invitee.Status != domain.ProfileStatusRejected {
		t.Fatalf("status = %s, want REJECTED to stick", f.invitee.Status)
	}
	if f.dispatcher.count(events.EventMemberRejected) != 1 {
		t.Fatal("expected exactly one member_rejected event")
	}
}

func TestRepeatVerifierConfirmationsCount(t *testing.T) {
	// Attestations are append-only and not deduplicated per verifier, so the
	// same member confirming twice reaches the threshold alone.
	f := newVerificationFixture()
	ctx := context.Background()

	if _, err := f.svc.RecordVerification(ctx, f.verifierA, f.invitee.ID, true, ""); err != nil {
		t.Fatalf("first confirmation: %v", err)
	}
	outcome, err := f.svc.RecordVerification(ctx, f.verifierA, f.invitee.ID, true, "")
	if err != nil {
		t.Fatalf("repeat confirmation: %v", err)
	}
	if outcome.NewStatus == nil || *outcome.NewStatus != domain.ProfileStatusActive {
		t.Fatal("repeat confirmations by one verifier should still activate")
	}
}

func TestRecordVerificationGuards(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()
	pendingVerifier := f.profiles.add(&domain.Profile{Name: "Pat", Status: domain.ProfileStatusPending})

	cases := []struct {
		name     string
		verifier *domain.Profile
		invitee  string
		wantCode string
	}{
		{"inactive verifier", pendingVerifier, f.invitee.ID, "FORBIDDEN"},
		{"self verification", f.verifierA, f.verifierA.ID, "VALIDATION_FAILED"},
		{"unknown invitee", f.verifierA, "no-such-profile", "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RecordVerification(ctx, tc.verifier, tc.invitee, true, "")
			if code := domainCode(t, err); code != tc.wantCode {
				t.Fatalf("error code = %s, want %s", code, tc.wantCode)
			}
		})
	}
}

func TestListForInvitee(t *testing.T) {
	f := newVerificationFixture()
	ctx := context.Background()

	if _, err := f.svc.RecordVerification(ctx, f.verifierA, f.invitee.ID, true, "vouched"); err != nil {
		t.Fatalf("RecordVerification: %v", err)
	}
	if _, err := f.svc.RecordVerification(ctx, f.verifierB, f.invitee.ID, false, "unsure"); err != nil {
		t.Fatalf("RecordVerification: %v", err)
	}

	list, err := f.svc.ListForInvitee(ctx, f.invitee.ID)
	if err != nil {
		t.Fatalf("ListForInvitee: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d attestations, want 2", len(list))
	}
}
