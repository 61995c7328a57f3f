package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supercivilization/membership-service/internal/domain"
)

// ProfileFilter narrows profile listings.
type ProfileFilter struct {
	Status *domain.ProfileStatus
	Role   *domain.Role
	Limit  int
	Offset int
}

// ProfileRepository defines persistence access for member profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, error)
	// UpdateRoleAudited applies a role change and its audit entry in a
	// single transaction, so a mutation never lands without its log row.
	UpdateRoleAudited(ctx context.Context, id string, role domain.Role, entry *domain.AdminLog) error
	// UpdateStatusAudited applies a status change (admin override, any
	// current status) and its audit entry in a single transaction.
	UpdateStatusAudited(ctx context.Context, id string, status domain.ProfileStatus, entry *domain.AdminLog) error
	// TransitionStatus sets status only when the row currently holds from,
	// reporting whether the transition happened.
	TransitionStatus(ctx context.Context, id string, from, to domain.ProfileStatus) (bool, error)
	SetEmailVerified(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context, status *domain.ProfileStatus) (int64, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, name, email, password_hash, role, reputation, status, email_verified_at, created_at, updated_at`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.PasswordHash,
		&p.Role,
		&p.Reputation,
		&p.Status,
		&p.EmailVerifiedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (name, email, password_hash, role, reputation, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.Name,
		profile.Email,
		profile.PasswordHash,
		profile.Role,
		profile.Reputation,
		profile.Status,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	const query = `
        UPDATE profiles SET name=$1, email=$2, password_hash=$3, reputation=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		profile.Name,
		profile.Email,
		profile.PasswordHash,
		profile.Reputation,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE id=$1`
	return scanProfile(r.pool.QueryRow(ctx, query, id))
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE email=$1`
	return scanProfile(r.pool.QueryRow(ctx, query, email))
}

func (r *profileRepository) List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE 1=1`
	args := []any{}
	idx := 1

	if filter.Status != nil {
		query += ` AND status=$` + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.Role != nil {
		query += ` AND role=$` + itoa(idx)
		args = append(args, *filter.Role)
		idx++
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT $` + itoa(idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		query += ` OFFSET $` + itoa(idx)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *profileRepository) UpdateRoleAudited(ctx context.Context, id string, role domain.Role, entry *domain.AdminLog) error {
	const query = `UPDATE profiles SET role=$1, updated_at=NOW() WHERE id=$2`
	return r.mutateAudited(ctx, query, role, id, entry)
}

func (r *profileRepository) UpdateStatusAudited(ctx context.Context, id string, status domain.ProfileStatus, entry *domain.AdminLog) error {
	const query = `UPDATE profiles SET status=$1, updated_at=NOW() WHERE id=$2`
	return r.mutateAudited(ctx, query, status, id, entry)
}

// mutateAudited runs the profile update and the admin_logs insert in one
// transaction: a failed audit write rolls the mutation back.
func (r *profileRepository) mutateAudited(ctx context.Context, query string, value any, id string, entry *domain.AdminLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, query, value, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	if err := insertAdminLog(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *profileRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ProfileStatus) (bool, error) {
	const query = `
        UPDATE profiles SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *profileRepository) SetEmailVerified(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE profiles SET email_verified_at=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) Count(ctx context.Context, status *domain.ProfileStatus) (int64, error) {
	var count int64
	if status == nil {
		err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
		return count, err
	}
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE status=$1`, *status).Scan(&count)
	return count, err
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
