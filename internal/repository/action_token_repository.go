package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supercivilization/membership-service/internal/domain"
)

// ActionTokenRepository manages single-use password-reset and email-verify tokens.
type ActionTokenRepository interface {
	Create(ctx context.Context, token *domain.ActionToken) error
	GetByToken(ctx context.Context, kind domain.TokenKind, token string) (*domain.ActionToken, error)
	MarkUsed(ctx context.Context, id string) error
}

type actionTokenRepository struct {
	pool *pgxpool.Pool
}

// NewActionTokenRepository constructs repository.
func NewActionTokenRepository(pool *pgxpool.Pool) ActionTokenRepository {
	return &actionTokenRepository{pool: pool}
}

func (r *actionTokenRepository) Create(ctx context.Context, token *domain.ActionToken) error {
	const query = `
        INSERT INTO action_tokens (profile_id, kind, token, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		token.ProfileID,
		token.Kind,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *actionTokenRepository) GetByToken(ctx context.Context, kind domain.TokenKind, tokenStr string) (*domain.ActionToken, error) {
	const query = `
        SELECT id, profile_id, kind, token, expires_at, used_at, created_at
        FROM action_tokens WHERE kind=$1 AND token=$2`

	var token domain.ActionToken
	if err := r.pool.QueryRow(ctx, query, kind, tokenStr).Scan(
		&token.ID,
		&token.ProfileID,
		&token.Kind,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *actionTokenRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `UPDATE action_tokens SET used_at=NOW() WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
