package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/supercivilization/membership-service/internal/domain"
	"github.com/supercivilization/membership-service/internal/events"
	"github.com/supercivilization/membership-service/internal/repository"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

// VerificationOutcome summarizes the effect of a recorded attestation.
type VerificationOutcome struct {
	Verification *domain.Verification
	// NewStatus is set when the attestation transitioned the invitee.
	NewStatus *domain.ProfileStatus
}

// VerificationService records peer attestations and applies the activation
// threshold: two confirmations activate a pending member, a single dissent
// rejects immediately.
type VerificationService struct {
	verifications repository.VerificationRepository
	profiles      repository.ProfileRepository
	dispatcher    events.Dispatcher
}

// VerificationDependencies bundles collaborators.
type VerificationDependencies struct {
	VerificationRepo repository.VerificationRepository
	ProfileRepo      repository.ProfileRepository
	Dispatcher       events.Dispatcher
}

// NewVerificationService constructs the service.
func NewVerificationService(deps VerificationDependencies) *VerificationService {
	return &VerificationService{
		verifications: deps.VerificationRepo,
		profiles:      deps.ProfileRepo,
		dispatcher:    deps.Dispatcher,
	}
}

// RecordVerification appends an attestation and applies any resulting status
// transition. Repeated submissions by the same verifier are not deduplicated.
func (s *VerificationService) RecordVerification(ctx context.Context, verifier *domain.Profile, inviteeID string, confirmed bool, reason string) (*VerificationOutcome, error) {
	if !verifier.IsActive() {
		return nil, apperrors.NewForbidden("active membership required to verify")
	}
	if verifier.ID == inviteeID {
		return nil, apperrors.NewValidationError("cannot verify yourself", nil)
	}

	if _, err := s.profiles.GetByID(ctx, inviteeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": inviteeID})
		}
		return nil, apperrors.MapError(err)
	}

	verification := &domain.Verification{
		InviteeID:  inviteeID,
		VerifierID: verifier.ID,
		Confirmed:  confirmed,
	}
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		verification.Reason = &trimmed
	}
	if err := s.verifications.Create(ctx, verification); err != nil {
		return nil, apperrors.MapError(err)
	}

	outcome := &VerificationOutcome{Verification: verification}

	if !confirmed {
		// One dissenting vote is terminal for a pending member.
		rejected, err := s.profiles.TransitionStatus(ctx, inviteeID, domain.ProfileStatusPending, domain.ProfileStatusRejected)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if rejected {
			status := domain.ProfileStatusRejected
			outcome.NewStatus = &status
			publish(ctx, s.dispatcher, events.Event{
				Type:      events.EventMemberRejected,
				ProfileID: inviteeID,
				ActorID:   verifier.ID,
				Payload:   events.MemberRejectedPayload{Reason: reason},
			})
		}
		return outcome, nil
	}

	activated, err := s.verifications.ActivateWhenConfirmed(ctx, inviteeID, domain.ActivationThreshold)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if activated {
		status := domain.ProfileStatusActive
		outcome.NewStatus = &status
		count, countErr := s.verifications.CountConfirmed(ctx, inviteeID)
		if countErr != nil {
			count = domain.ActivationThreshold
		}
		publish(ctx, s.dispatcher, events.Event{
			Type:      events.EventMemberActivated,
			ProfileID: inviteeID,
			ActorID:   verifier.ID,
			Payload:   events.MemberActivatedPayload{Confirmations: int(count)},
		})
	}
	return outcome, nil
}

// ListForInvitee returns all attestations recorded for a member.
func (s *VerificationService) ListForInvitee(ctx context.Context, inviteeID string) ([]domain.Verification, error) {
	list, err := s.verifications.ListByInvitee(ctx, inviteeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}
