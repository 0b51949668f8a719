package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"authcore/internal/project/domain"
	memberdomain "authcore/internal/projectmember/domain"
)

const projectColumns = `id, owner_id, platform_id, display_name, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a project repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the project for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return scanProject(r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

// GetFirstByOwner returns the oldest project owned by ownerID, or nil if the user owns none.
func (r *PostgresRepository) GetFirstByOwner(ctx context.Context, ownerID string) (*domain.Project, error) {
	return scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE owner_id = $1 ORDER BY created_at ASC LIMIT 1`, ownerID))
}

// CreateWithOwner persists the project and its owner membership atomically.
// Both must have ID set; on failure neither row exists.
func (r *PostgresRepository) CreateWithOwner(ctx context.Context, p *domain.Project, owner *memberdomain.Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.OwnerID, nullString(p.PlatformID), p.DisplayName, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_members (id, user_id, email, platform_id, project_id, role, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		owner.ID, nullString(owner.UserID), owner.Email, nullString(owner.PlatformID), p.ID,
		string(owner.Role), string(owner.Status), owner.CreatedAt, owner.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}
	return tx.Commit()
}

func scanProject(row *sql.Row) (*domain.Project, error) {
	var (
		p          domain.Project
		platformID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &platformID, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.PlatformID = platformID.String
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
