package repository

import (
	"context"
	"database/sql"

	"authcore/internal/audit/domain"
)

const auditColumns = `id, platform_id, user_id, action, resource, ip, metadata, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log to the database. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.PlatformID, a.UserID, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt)
	return err
}

// ListByPlatform returns audit logs for the platform, newest first, paginated by limit and offset.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByPlatform(ctx context.Context, platformID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs WHERE platform_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		platformID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.PlatformID, &a.UserID, &a.Action, &a.Resource, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
