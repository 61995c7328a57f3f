package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supercivilization/membership-service/internal/domain"
)

// VerificationRepository stores append-only peer attestations.
type VerificationRepository interface {
	Create(ctx context.Context, verification *domain.Verification) error
	ListByInvitee(ctx context.Context, inviteeID string) ([]domain.Verification, error)
	CountConfirmed(ctx context.Context, inviteeID string) (int64, error)
	// ActivateWhenConfirmed flips the invitee PENDING -> ACTIVE in a single
	// statement guarded by the confirmation count, so two concurrent
	// confirmations cannot both observe a sub-threshold count and neither
	// activate. Reports whether the activation happened.
	ActivateWhenConfirmed(ctx context.Context, inviteeID string, threshold int) (bool, error)
}

type verificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository builds repository.
func NewVerificationRepository(pool *pgxpool.Pool) VerificationRepository {
	return &verificationRepository{pool: pool}
}

func (r *verificationRepository) Create(ctx context.Context, verification *domain.Verification) error {
	const query = `
        INSERT INTO verifications (invitee_id, verifier_id, confirmed, reason)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		verification.InviteeID,
		verification.VerifierID,
		verification.Confirmed,
		verification.Reason,
	).Scan(&verification.ID, &verification.CreatedAt)
}

func (r *verificationRepository) ListByInvitee(ctx context.Context, inviteeID string) ([]domain.Verification, error) {
	const query = `
        SELECT id, invitee_id, verifier_id, confirmed, reason, created_at
        FROM verifications WHERE invitee_id=$1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, inviteeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Verification
	for rows.Next() {
		var v domain.Verification
		if err := rows.Scan(
			&v.ID,
			&v.InviteeID,
			&v.VerifierID,
			&v.Confirmed,
			&v.Reason,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *verificationRepository) CountConfirmed(ctx context.Context, inviteeID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM verifications WHERE invitee_id=$1 AND confirmed=true`
	var count int64
	err := r.pool.QueryRow(ctx, query, inviteeID).Scan(&count)
	return count, err
}

func (r *verificationRepository) ActivateWhenConfirmed(ctx context.Context, inviteeID string, threshold int) (bool, error) {
	const query = `
        UPDATE profiles SET status='ACTIVE', updated_at=NOW()
        WHERE id=$1 AND status='PENDING'
          AND (SELECT COUNT(*) FROM verifications WHERE invitee_id=$1 AND confirmed=true) >= $2`

	cmd, err := r.pool.Exec(ctx, query, inviteeID, threshold)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
