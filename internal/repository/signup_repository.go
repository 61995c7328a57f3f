package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supercivilization/membership-service/internal/domain"
)

// SignupRepository persists a new profile and consumes its invite as one
// atomic unit, so a lost redemption never leaves an orphaned profile
// claiming the email address.
type SignupRepository interface {
	// CreateProfileWithInvite inserts the profile and consumes code inside
	// a single transaction. When the conditional consume matches nothing
	// (code redeemed concurrently or expired) the profile insert is rolled
	// back and pgx.ErrNoRows is returned.
	CreateProfileWithInvite(ctx context.Context, profile *domain.Profile, code string) (*domain.Invite, error)
}

type signupRepository struct {
	pool *pgxpool.Pool
}

// NewSignupRepository returns a Postgres-backed implementation.
func NewSignupRepository(pool *pgxpool.Pool) SignupRepository {
	return &signupRepository{pool: pool}
}

func (r *signupRepository) CreateProfileWithInvite(ctx context.Context, profile *domain.Profile, code string) (*domain.Invite, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertProfile = `
        INSERT INTO profiles (name, email, password_hash, role, reputation, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertProfile,
		profile.Name,
		profile.Email,
		profile.PasswordHash,
		profile.Role,
		profile.Reputation,
		profile.Status,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return nil, err
	}

	const consume = `
        UPDATE invites
        SET consumed=true, consumed_at=NOW(), redeemed_by=$2
        WHERE code=$1 AND consumed=false AND expires_at > NOW()
        RETURNING ` + inviteColumns
	invite, err := scanInvite(tx.QueryRow(ctx, consume, code, profile.ID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return invite, nil
}
