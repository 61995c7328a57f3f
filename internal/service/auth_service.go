package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/supercivilization/membership-service/internal/auth"
	"github.com/supercivilization/membership-service/internal/config"
	"github.com/supercivilization/membership-service/internal/domain"
	"github.com/supercivilization/membership-service/internal/events"
	"github.com/supercivilization/membership-service/internal/repository"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

// AuthService coordinates signup, login and account-recovery flows.
type AuthService struct {
	profiles       repository.ProfileRepository
	signup         repository.SignupRepository
	tokens         repository.ActionTokenRepository
	inviteSvc      *InviteService
	mailer         EmailSender
	dispatcher     events.Dispatcher
	tokenMgr       *auth.TokenManager
	bcryptCost     int
	resetTTL       time.Duration
	emailVerifyTTL time.Duration
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	ProfileRepo     repository.ProfileRepository
	SignupRepo      repository.SignupRepository
	ActionTokenRepo repository.ActionTokenRepository
	InviteService   *InviteService
	Mailer          EmailSender
	Dispatcher      events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		profiles:       deps.ProfileRepo,
		signup:         deps.SignupRepo,
		tokens:         deps.ActionTokenRepo,
		inviteSvc:      deps.InviteService,
		mailer:         deps.Mailer,
		dispatcher:     deps.Dispatcher,
		tokenMgr:       auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:     cfg.Auth.BcryptCost,
		resetTTL:       time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		emailVerifyTTL: time.Duration(cfg.Auth.EmailVerifyTTLHours) * time.Hour,
	}
}

// Signup registers a new member behind a valid invite code. The new profile
// starts PENDING until peers confirm it; the invite is consumed atomically so
// concurrent signups against the same code produce a single winner.
func (s *AuthService) Signup(ctx context.Context, name, email, password, inviteCode string) (*domain.Profile, error) {
	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	// Fast-fail before creating the profile; the authoritative check is the
	// conditional consume below.
	validation, err := s.inviteSvc.ValidateInvite(ctx, "", inviteCode)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, apperrors.NewValidationError(validation.Reason, nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	profile := &domain.Profile{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleMember,
		Status:       domain.ProfileStatusPending,
	}
	invite, err := s.signup.CreateProfileWithInvite(ctx, profile, inviteCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.redemptionFailure(ctx, inviteCode)
		}
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventInviteRedeemed,
		ProfileID: profile.ID,
		ActorID:   profile.ID,
		Payload: events.InviteRedeemedPayload{
			Code:     invite.Code,
			IssuerID: invite.IssuerID,
		},
	})
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventMemberSignedUp,
		ProfileID: profile.ID,
		ActorID:   profile.ID,
		Payload: events.MemberSignedUpPayload{
			Email:      profile.Email,
			Name:       profile.Name,
			InviteCode: inviteCode,
		},
	})

	if err := s.sendEmailVerification(ctx, profile); err != nil {
		// Verification mail failures must not fail the signup.
		return profile, nil
	}
	return profile, nil
}

// redemptionFailure maps a lost conditional consume to a precise reason by
// re-reading the invite. A code that still reads valid was taken by a
// concurrent winner between our read and the consume.
func (s *AuthService) redemptionFailure(ctx context.Context, code string) error {
	validation, err := s.inviteSvc.ValidateInvite(ctx, "", code)
	if err != nil {
		return err
	}
	if validation.Valid {
		return apperrors.NewValidationError(ReasonUsed, nil)
	}
	return apperrors.NewValidationError(validation.Reason, nil)
}

// Login authenticates a member and returns a bearer token. Banned and
// rejected members cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Profile, string, time.Time, error) {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(profile.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if profile.Status == domain.ProfileStatusBanned || profile.Status == domain.ProfileStatusRejected {
		return nil, "", time.Time{}, apperrors.NewForbidden("account is not in good standing")
	}

	token, exp, err := s.tokenMgr.GenerateToken(profile.ID, profile.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return profile, token, exp, nil
}

// Logout currently no-ops for the stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// RequestPasswordReset persists a reset token and mails it to the member.
// An unknown email reports success to avoid account enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}

	token := &domain.ActionToken{
		ProfileID: profile.ID,
		Kind:      domain.TokenKindPasswordReset,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return apperrors.MapError(err)
	}

	body := fmt.Sprintf("Use this token to reset your password: %s", token.Token)
	return s.sendMail(ctx, profile.Email, "Reset your password", body)
}

// ConfirmPasswordReset validates a reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.tokens.GetByToken(ctx, domain.TokenKindPasswordReset, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid token", nil)
		}
		return apperrors.MapError(err)
	}
	if !token.Usable(time.Now()) {
		return apperrors.NewValidationError("token expired or used", nil)
	}

	profile, err := s.profiles.GetByID(ctx, token.ProfileID)
	if err != nil {
		return apperrors.MapError(err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	profile.PasswordHash = hash
	if err := s.profiles.Update(ctx, profile); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// VerifyEmail consumes a verification token and stamps the profile.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) error {
	token, err := s.tokens.GetByToken(ctx, domain.TokenKindEmailVerify, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid token", nil)
		}
		return apperrors.MapError(err)
	}
	if !token.Usable(time.Now()) {
		return apperrors.NewValidationError("token expired or used", nil)
	}

	if err := s.profiles.SetEmailVerified(ctx, token.ProfileID, time.Now()); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangePassword verifies the current password before updating to a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, profileID, currentPassword, newPassword string) error {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(profile.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	profile.PasswordHash = hash
	if err := s.profiles.Update(ctx, profile); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) sendEmailVerification(ctx context.Context, profile *domain.Profile) error {
	token := &domain.ActionToken{
		ProfileID: profile.ID,
		Kind:      domain.TokenKindEmailVerify,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.emailVerifyTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return err
	}
	body := fmt.Sprintf("Welcome to Supercivilization. Verify your email with this token: %s", token.Token)
	return s.sendMail(ctx, profile.Email, "Verify your email", body)
}

func (s *AuthService) sendMail(ctx context.Context, to, subject, body string) error {
	if s.mailer == nil {
		return nil
	}
	return s.mailer.Send(ctx, to, subject, body)
}
