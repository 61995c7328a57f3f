package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/supercivilization/membership-service/internal/config"
	"github.com/supercivilization/membership-service/internal/domain"
	"github.com/supercivilization/membership-service/internal/events"
	"github.com/supercivilization/membership-service/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			EmailVerifyTTLHours:     48,
			BcryptCost:              4,
		},
		Invite: config.InviteConfig{
			DefaultTTLHours: 24,
			MaxTTLHours:     168,
		},
		RateLimit: config.RateLimitConfig{
			ValidateLimit:         10,
			ValidateWindowSeconds: 60,
		},
	}
}

// --- mock ProfileRepository ---

type mockProfileRepo struct {
	profiles map[string]*domain.Profile
	logs     *mockAdminLogRepo
	seq      int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (m *mockProfileRepo) add(p *domain.Profile) *domain.Profile {
	if p.ID == "" {
		m.seq++
		p.ID = fmt.Sprintf("profile-%d", m.seq)
	}
	m.profiles[p.ID] = p
	return p
}

func (m *mockProfileRepo) Create(_ context.Context, profile *domain.Profile) error {
	for _, existing := range m.profiles {
		if existing.Email == profile.Email {
			return fmt.Errorf("duplicate email %s", profile.Email)
		}
	}
	profile.CreatedAt = time.Now()
	m.add(profile)
	return nil
}

func (m *mockProfileRepo) Update(_ context.Context, profile *domain.Profile) error {
	if _, ok := m.profiles[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.profiles[profile.ID] = profile
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *mockProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockProfileRepo) List(_ context.Context, filter repository.ProfileFilter) ([]domain.Profile, error) {
	var result []domain.Profile
	for _, p := range m.profiles {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && p.Role != *filter.Role {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

// UpdateRoleAudited mimics the transactional contract: when the audit write
// fails the role change is rolled back.
func (m *mockProfileRepo) UpdateRoleAudited(ctx context.Context, id string, role domain.Role, entry *domain.AdminLog) error {
	p, ok := m.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	previous := p.Role
	p.Role = role
	if err := m.logs.Create(ctx, entry); err != nil {
		p.Role = previous
		return err
	}
	return nil
}

func (m *mockProfileRepo) UpdateStatusAudited(ctx context.Context, id string, status domain.ProfileStatus, entry *domain.AdminLog) error {
	p, ok := m.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	previous := p.Status
	p.Status = status
	if err := m.logs.Create(ctx, entry); err != nil {
		p.Status = previous
		return err
	}
	return nil
}

func (m *mockProfileRepo) TransitionStatus(_ context.Context, id string, from, to domain.ProfileStatus) (bool, error) {
	p, ok := m.profiles[id]
	if !ok {
		return false, nil
	}
	if p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (m *mockProfileRepo) SetEmailVerified(_ context.Context, id string, at time.Time) error {
	p, ok := m.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.EmailVerifiedAt = &at
	return nil
}

func (m *mockProfileRepo) Count(_ context.Context, status *domain.ProfileStatus) (int64, error) {
	var n int64
	for _, p := range m.profiles {
		if status == nil || p.Status == *status {
			n++
		}
	}
	return n, nil
}

// --- mock InviteRepository ---

type mockInviteRepo struct {
	invites map[string]*domain.Invite
	seq     int
	now     func() time.Time
}

func newMockInviteRepo() *mockInviteRepo {
	return &mockInviteRepo{invites: make(map[string]*domain.Invite), now: time.Now}
}

func (m *mockInviteRepo) Create(_ context.Context, invite *domain.Invite) error {
	if _, ok := m.invites[invite.Code]; ok {
		return fmt.Errorf("duplicate code %s", invite.Code)
	}
	m.seq++
	invite.ID = fmt.Sprintf("invite-%d", m.seq)
	invite.CreatedAt = m.now()
	m.invites[invite.Code] = invite
	return nil
}

func (m *mockInviteRepo) GetByCode(_ context.Context, code string) (*domain.Invite, error) {
	if inv, ok := m.invites[code]; ok {
		return inv, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *mockInviteRepo) ListByIssuer(_ context.Context, issuerID string, _, _ int) ([]domain.Invite, error) {
	var result []domain.Invite
	for _, inv := range m.invites {
		if inv.IssuerID == issuerID {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (m *mockInviteRepo) Count(_ context.Context, consumed *bool) (int64, error) {
	var n int64
	for _, inv := range m.invites {
		if consumed == nil || inv.Consumed == *consumed {
			n++
		}
	}
	return n, nil
}

// --- mock SignupRepository ---

// mockSignupRepo mirrors the all-or-nothing contract of the Postgres
// implementation: when the consume loses, the profile is not kept.
type mockSignupRepo struct {
	profiles *mockProfileRepo
	invites  *mockInviteRepo
}

func (m *mockSignupRepo) CreateProfileWithInvite(ctx context.Context, profile *domain.Profile, code string) (*domain.Invite, error) {
	inv, ok := m.invites.invites[code]
	if !ok || !inv.Redeemable(m.invites.now()) {
		return nil, pgx.ErrNoRows
	}
	if err := m.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	consumedAt := m.invites.now()
	inv.Consumed = true
	inv.ConsumedAt = &consumedAt
	inv.RedeemedBy = &profile.ID
	return inv, nil
}

// --- mock VerificationRepository ---

// mockVerificationRepo mirrors the guarded-update semantics of the Postgres
// implementation: activation only fires while the invitee is PENDING and the
// confirmation count has reached the threshold.
type mockVerificationRepo struct {
	verifications []*domain.Verification
	profiles      *mockProfileRepo
	seq           int
}

func newMockVerificationRepo(profiles *mockProfileRepo) *mockVerificationRepo {
	return &mockVerificationRepo{profiles: profiles}
}

func (m *mockVerificationRepo) Create(_ context.Context, verification *domain.Verification) error {
	m.seq++
	verification.ID = fmt.Sprintf("verification-%d", m.seq)
	verification.CreatedAt = time.Now()
	m.verifications = append(m.verifications, verification)
	return nil
}

func (m *mockVerificationRepo) ListByInvitee(_ context.Context, inviteeID string) ([]domain.Verification, error) {
	var result []domain.Verification
	for _, v := range m.verifications {
		if v.InviteeID == inviteeID {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (m *mockVerificationRepo) CountConfirmed(_ context.Context, inviteeID string) (int64, error) {
	var n int64
	for _, v := range m.verifications {
		if v.InviteeID == inviteeID && v.Confirmed {
			n++
		}
	}
	return n, nil
}

func (m *mockVerificationRepo) ActivateWhenConfirmed(ctx context.Context, inviteeID string, threshold int) (bool, error) {
	count, _ := m.CountConfirmed(ctx, inviteeID)
	if count < int64(threshold) {
		return false, nil
	}
	return m.profiles.TransitionStatus(ctx, inviteeID, domain.ProfileStatusPending, domain.ProfileStatusActive)
}

// --- mock AdminLogRepository ---

type mockAdminLogRepo struct {
	entries   []*domain.AdminLog
	createErr error
	seq       int
}

func newMockAdminLogRepo() *mockAdminLogRepo {
	return &mockAdminLogRepo{}
}

func (m *mockAdminLogRepo) Create(_ context.Context, entry *domain.AdminLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	entry.ID = fmt.Sprintf("log-%d", m.seq)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAdminLogRepo) List(_ context.Context, _, _ int) ([]domain.AdminLog, error) {
	var result []domain.AdminLog
	for _, e := range m.entries {
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockAdminLogRepo) ListByTarget(_ context.Context, targetTable, targetID string) ([]domain.AdminLog, error) {
	var result []domain.AdminLog
	for _, e := range m.entries {
		if e.TargetTable == targetTable && e.TargetID == targetID {
			result = append(result, *e)
		}
	}
	return result, nil
}

// --- mock ActionTokenRepository ---

type mockActionTokenRepo struct {
	tokens map[string]*domain.ActionToken
	seq    int
}

func newMockActionTokenRepo() *mockActionTokenRepo {
	return &mockActionTokenRepo{tokens: make(map[string]*domain.ActionToken)}
}

func (m *mockActionTokenRepo) Create(_ context.Context, token *domain.ActionToken) error {
	m.seq++
	token.ID = fmt.Sprintf("token-%d", m.seq)
	token.CreatedAt = time.Now()
	m.tokens[token.ID] = token
	return nil
}

func (m *mockActionTokenRepo) GetByToken(_ context.Context, kind domain.TokenKind, token string) (*domain.ActionToken, error) {
	for _, t := range m.tokens {
		if t.Kind == kind && t.Token == token {
			return t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockActionTokenRepo) MarkUsed(_ context.Context, id string) error {
	t, ok := m.tokens[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	t.UsedAt = &now
	return nil
}

// --- rate limiter and dispatcher stubs ---

type stubLimiter struct {
	allow bool
	err   error
	calls int
}

func (l *stubLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	l.calls++
	return l.allow, l.err
}

// recordingDispatcher captures published event types in order.
type recordingDispatcher struct {
	published []events.EventType
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event.Type)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) count(eventType events.EventType) int {
	n := 0
	for _, t := range d.published {
		if t == eventType {
			n++
		}
	}
	return n
}

// --- mailer stub ---

type sentMail struct {
	to      string
	subject string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}
