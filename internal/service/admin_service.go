package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/supercivilization/membership-service/internal/domain"
	"github.com/supercivilization/membership-service/internal/events"
	"github.com/supercivilization/membership-service/internal/repository"
	apperrors "github.com/supercivilization/membership-service/pkg/util"
)

// AdminStats aggregates counts shown on the admin dashboard.
type AdminStats struct {
	TotalProfiles   int64 `json:"total_profiles"`
	PendingProfiles int64 `json:"pending_profiles"`
	ActiveProfiles  int64 `json:"active_profiles"`
	TotalInvites    int64 `json:"total_invites"`
	UsedInvites     int64 `json:"used_invites"`
	ConversionRate  int   `json:"conversion_rate"`
}

const (
	statsCacheKey = "admin:stats"
	statsCacheTTL = time.Minute
)

// AdminService performs role-gated mutations with an audit trail.
type AdminService struct {
	profiles   repository.ProfileRepository
	invites    repository.InviteRepository
	logs       repository.AdminLogRepository
	dispatcher events.Dispatcher
	cache      *redis.Client
	logger     *zap.Logger
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	ProfileRepo  repository.ProfileRepository
	InviteRepo   repository.InviteRepository
	AdminLogRepo repository.AdminLogRepository
	Dispatcher   events.Dispatcher
	Cache        *redis.Client
	Logger       *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		profiles:   deps.ProfileRepo,
		invites:    deps.InviteRepo,
		logs:       deps.AdminLogRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     deps.Logger,
	}
}

func requireAdmin(actor *domain.Profile) error {
	if actor == nil || !actor.Role.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// UpdateUserRole sets a member's role. Promotion to ADMIN is reserved to
// SUPERADMIN actors; every successful change writes exactly one audit row.
func (s *AdminService) UpdateUserRole(ctx context.Context, actor *domain.Profile, targetID string, newRole domain.Role) (*domain.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !domain.ValidRole(newRole) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": newRole})
	}
	if !actor.Role.CanGrant(newRole) {
		return nil, apperrors.NewForbidden("superadmin required to grant admin role")
	}

	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": targetID})
		}
		return nil, apperrors.MapError(err)
	}

	oldRole := target.Role
	entry := &domain.AdminLog{
		AdminID:     actor.ID,
		Action:      domain.AdminActionRoleChange,
		TargetTable: "profiles",
		TargetID:    targetID,
		Details: map[string]any{
			"before": map[string]any{"role": oldRole},
			"after":  map[string]any{"role": newRole},
		},
	}
	// Mutation and audit row commit together; a failed audit write leaves the
	// role untouched.
	if err := s.profiles.UpdateRoleAudited(ctx, targetID, newRole, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	target.Role = newRole
	s.invalidateStats(ctx)

	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventRoleChanged,
		ProfileID: targetID,
		ActorID:   actor.ID,
		Payload:   events.RoleChangedPayload{OldRole: oldRole, NewRole: newRole},
	})
	return target, nil
}

// BanUser sets a member's status to BANNED regardless of current status
// (admin override of the verification state machine).
func (s *AdminService) BanUser(ctx context.Context, actor *domain.Profile, targetID, reason string) (*domain.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("ban reason required", nil)
	}

	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": targetID})
		}
		return nil, apperrors.MapError(err)
	}

	oldStatus := target.Status
	entry := &domain.AdminLog{
		AdminID:     actor.ID,
		Action:      domain.AdminActionBan,
		TargetTable: "profiles",
		TargetID:    targetID,
		Details: map[string]any{
			"before": map[string]any{"status": oldStatus},
			"after":  map[string]any{"status": domain.ProfileStatusBanned},
			"reason": reason,
		},
	}
	if err := s.profiles.UpdateStatusAudited(ctx, targetID, domain.ProfileStatusBanned, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	target.Status = domain.ProfileStatusBanned
	s.invalidateStats(ctx)

	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventMemberBanned,
		ProfileID: targetID,
		ActorID:   actor.ID,
		Payload:   events.MemberBannedPayload{Reason: reason},
	})
	return target, nil
}

// GetAdminStats runs the five aggregate counts concurrently, joins on all of
// them and derives the invite conversion rate. Results are cached briefly.
func (s *AdminService) GetAdminStats(ctx context.Context, actor *domain.Profile) (*AdminStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if cached := s.cachedStats(ctx); cached != nil {
		return cached, nil
	}

	pending := domain.ProfileStatusPending
	active := domain.ProfileStatusActive
	used := true

	var (
		wg    sync.WaitGroup
		stats AdminStats
		errs  [5]error
	)
	counts := []struct {
		dest *int64
		err  *error
		load func(context.Context) (int64, error)
	}{
		{&stats.TotalProfiles, &errs[0], func(ctx context.Context) (int64, error) { return s.profiles.Count(ctx, nil) }},
		{&stats.PendingProfiles, &errs[1], func(ctx context.Context) (int64, error) { return s.profiles.Count(ctx, &pending) }},
		{&stats.ActiveProfiles, &errs[2], func(ctx context.Context) (int64, error) { return s.profiles.Count(ctx, &active) }},
		{&stats.TotalInvites, &errs[3], func(ctx context.Context) (int64, error) { return s.invites.Count(ctx, nil) }},
		{&stats.UsedInvites, &errs[4], func(ctx context.Context) (int64, error) { return s.invites.Count(ctx, &used) }},
	}

	wg.Add(len(counts))
	for _, c := range counts {
		go func(dest *int64, errDest *error, load func(context.Context) (int64, error)) {
			defer wg.Done()
			*dest, *errDest = load(ctx)
		}(c.dest, c.err, c.load)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	stats.ConversionRate = ConversionRate(stats.UsedInvites, stats.TotalInvites)
	s.storeStats(ctx, &stats)
	return &stats, nil
}

// ListMembers returns profiles for the admin dashboard.
func (s *AdminService) ListMembers(ctx context.Context, actor *domain.Profile, filter repository.ProfileFilter) ([]domain.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	members, err := s.profiles.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}

// ListAuditLog pages through the audit trail.
func (s *AdminService) ListAuditLog(ctx context.Context, actor *domain.Profile, limit, offset int) ([]domain.AdminLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	entries, err := s.logs.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// ConversionRate derives round(100 * used / total), 0 when total is 0.
func ConversionRate(used, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(used) / float64(total) * 100))
}

func (s *AdminService) cachedStats(ctx context.Context) *AdminStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats AdminStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *AdminService) storeStats(ctx context.Context, stats *AdminStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
}

func (s *AdminService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil && s.logger != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
