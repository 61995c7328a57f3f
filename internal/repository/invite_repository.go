package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supercivilization/membership-service/internal/domain"
)

// InviteRepository defines persistence access for invite codes.
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.Invite) error
	GetByCode(ctx context.Context, code string) (*domain.Invite, error)
	ListByIssuer(ctx context.Context, issuerID string, limit, offset int) ([]domain.Invite, error)
	Count(ctx context.Context, consumed *bool) (int64, error)
}

type inviteRepository struct {
	pool *pgxpool.Pool
}

// NewInviteRepository returns a Postgres-backed implementation.
func NewInviteRepository(pool *pgxpool.Pool) InviteRepository {
	return &inviteRepository{pool: pool}
}

const inviteColumns = `id, code, issuer_id, consumed, expires_at, consumed_at, redeemed_by, created_at`

func scanInvite(row pgx.Row) (*domain.Invite, error) {
	var inv domain.Invite
	if err := row.Scan(
		&inv.ID,
		&inv.Code,
		&inv.IssuerID,
		&inv.Consumed,
		&inv.ExpiresAt,
		&inv.ConsumedAt,
		&inv.RedeemedBy,
		&inv.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	const query = `
        INSERT INTO invites (code, issuer_id, consumed, expires_at)
        VALUES ($1, $2, false, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		invite.Code,
		invite.IssuerID,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt)
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*domain.Invite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM invites WHERE code=$1`
	return scanInvite(r.pool.QueryRow(ctx, query, code))
}

func (r *inviteRepository) ListByIssuer(ctx context.Context, issuerID string, limit, offset int) ([]domain.Invite, error) {
	const query = `
        SELECT ` + inviteColumns + `
        FROM invites WHERE issuer_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, query, issuerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	return result, rows.Err()
}

func (r *inviteRepository) Count(ctx context.Context, consumed *bool) (int64, error) {
	var count int64
	if consumed == nil {
		err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invites`).Scan(&count)
		return count, err
	}
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invites WHERE consumed=$1`, *consumed).Scan(&count)
	return count, err
}
