package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supercivilization/membership-service/internal/domain"
)

// AdminLogRepository stores audit entries for privileged mutations.
type AdminLogRepository interface {
	Create(ctx context.Context, entry *domain.AdminLog) error
	List(ctx context.Context, limit, offset int) ([]domain.AdminLog, error)
	ListByTarget(ctx context.Context, targetTable, targetID string) ([]domain.AdminLog, error)
}

type adminLogRepository struct {
	pool *pgxpool.Pool
}

// NewAdminLogRepository builds repository.
func NewAdminLogRepository(pool *pgxpool.Pool) AdminLogRepository {
	return &adminLogRepository{pool: pool}
}

func (r *adminLogRepository) Create(ctx context.Context, entry *domain.AdminLog) error {
	return insertAdminLog(ctx, r.pool, entry)
}

// rowQuerier is satisfied by both the pool and a pgx.Tx, so audit entries
// can be written standalone or inside an enclosing transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertAdminLog(ctx context.Context, q rowQuerier, entry *domain.AdminLog) error {
	const query = `
        INSERT INTO admin_logs (admin_id, action, target_table, target_id, details)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	return q.QueryRow(ctx, query,
		entry.AdminID,
		entry.Action,
		entry.TargetTable,
		entry.TargetID,
		entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *adminLogRepository) List(ctx context.Context, limit, offset int) ([]domain.AdminLog, error) {
	const query = `
        SELECT id, admin_id, action, target_table, target_id, details, created_at
        FROM admin_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAdminLogs(rows)
}

func (r *adminLogRepository) ListByTarget(ctx context.Context, targetTable, targetID string) ([]domain.AdminLog, error) {
	const query = `
        SELECT id, admin_id, action, target_table, target_id, details, created_at
        FROM admin_logs WHERE target_table=$1 AND target_id=$2 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, targetTable, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAdminLogs(rows)
}

func collectAdminLogs(rows pgx.Rows) ([]domain.AdminLog, error) {
	var result []domain.AdminLog
	for rows.Next() {
		var entry domain.AdminLog
		if err := rows.Scan(
			&entry.ID,
			&entry.AdminID,
			&entry.Action,
			&entry.TargetTable,
			&entry.TargetID,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
