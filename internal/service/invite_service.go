package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/supercivilization/membership-service/internal/config"
	"github.com/supercivilization/membership-service/internal/domain"
	"github.com/supercivilization/membership-service/internal/events"
	"github.com/supercivilization/membership-service/internal/ratelimit"
	"github.com/supercivilization/membership-service/internal/repository"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

// InviteValidation is the outcome of checking a presented code.
type InviteValidation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Validation reasons reported to callers.
const (
	ReasonInvalidCode = "invalid code"
	ReasonExpired     = "expired"
	ReasonUsed        = "already used"
)

// InviteService issues, validates and redeems invite codes.
type InviteService struct {
	invites    repository.InviteRepository
	profiles   repository.ProfileRepository
	limiter    ratelimit.Limiter
	dispatcher events.Dispatcher
	cfg        config.InviteConfig
	rateCfg    config.RateLimitConfig
	now        func() time.Time
}

// InviteDependencies bundles collaborators for the invite service.
type InviteDependencies struct {
	InviteRepo  repository.InviteRepository
	ProfileRepo repository.ProfileRepository
	Limiter     ratelimit.Limiter
	Dispatcher  events.Dispatcher
}

// NewInviteService constructs the service.
func NewInviteService(cfg config.Config, deps InviteDependencies) *InviteService {
	return &InviteService{
		invites:    deps.InviteRepo,
		profiles:   deps.ProfileRepo,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		cfg:        cfg.Invite,
		rateCfg:    cfg.RateLimit,
		now:        time.Now,
	}
}

// IssueInvite creates a new single-use code for an active member. ttlHours
// zero or negative falls back to the configured default.
func (s *InviteService) IssueInvite(ctx context.Context, issuer *domain.Profile, ttlHours int) (*domain.Invite, error) {
	if !issuer.IsActive() {
		return nil, apperrors.NewForbidden("active membership required to issue invites")
	}

	if ttlHours <= 0 {
		ttlHours = s.cfg.DefaultTTLHours
	}
	if s.cfg.MaxTTLHours > 0 && ttlHours > s.cfg.MaxTTLHours {
		return nil, apperrors.NewValidationError("ttl exceeds maximum", map[string]any{
			"max_ttl_hours": s.cfg.MaxTTLHours,
		})
	}

	code, err := GenerateInviteCode()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	invite := &domain.Invite{
		Code:      code,
		IssuerID:  issuer.ID,
		ExpiresAt: s.now().Add(time.Duration(ttlHours) * time.Hour),
	}
	// No uniqueness retry: a code collision surfaces as a unique-constraint
	// conflict from the store.
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventInviteIssued,
		ProfileID: issuer.ID,
		ActorID:   issuer.ID,
		Payload: events.InviteIssuedPayload{
			Code:      invite.Code,
			ExpiresAt: invite.ExpiresAt,
		},
	})
	return invite, nil
}

// ValidateInvite checks a presented code. Check order is existence, then
// expiry, then used-state, so an expired-and-used code reports "expired".
// Checks are throttled per client address to blunt code enumeration.
func (s *InviteService) ValidateInvite(ctx context.Context, clientKey, code string) (*InviteValidation, error) {
	if s.limiter != nil && clientKey != "" {
		allowed, err := s.limiter.Allow(ctx, "invite_validate:"+clientKey, s.rateCfg.ValidateLimit, s.rateCfg.ValidateWindow())
		if err == nil && !allowed {
			return nil, apperrors.NewTooManyRequests("too many validation attempts")
		}
	}

	invite, err := s.invites.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &InviteValidation{Valid: false, Reason: ReasonInvalidCode}, nil
		}
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	switch {
	case invite.Expired(now):
		return &InviteValidation{Valid: false, Reason: ReasonExpired}, nil
	case invite.Consumed:
		return &InviteValidation{Valid: false, Reason: ReasonUsed}, nil
	}
	return &InviteValidation{Valid: true}, nil
}

// ListInvites returns codes issued by a member.
func (s *InviteService) ListInvites(ctx context.Context, issuerID string, limit, offset int) ([]domain.Invite, error) {
	invites, err := s.invites.ListByIssuer(ctx, issuerID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return invites, nil
}

// GenerateInviteCode draws a fixed-length code uniformly from the
// alphanumeric alphabet.
func GenerateInviteCode() (string, error) {
	alphabetLen := big.NewInt(int64(len(domain.InviteCodeAlphabet)))
	code := make([]byte, domain.InviteCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		code[i] = domain.InviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
