package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"authcore/internal/projectmember/domain"
)

const memberColumns = `id, user_id, email, platform_id, project_id, role, status, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a project member repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the member. The member must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_members (`+memberColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, nullString(m.UserID), m.Email, nullString(m.PlatformID), m.ProjectID,
		string(m.Role), string(m.Status), m.CreatedAt, m.UpdatedAt)
	return err
}

// ListPendingByEmail returns pending invitations for email in the platform scope.
func (r *PostgresRepository) ListPendingByEmail(ctx context.Context, platformID, email string) ([]*domain.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM project_members
		 WHERE COALESCE(platform_id, '') = $1 AND email = $2 AND status = $3
		 ORDER BY created_at ASC`,
		platformID, email, string(domain.StatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Activate binds userID to every member in ids and sets them ACTIVE in one transaction.
// Missing members are not an error; any failure leaves all of them unchanged.
func (r *PostgresRepository) Activate(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, id := range ids {
		_, err := tx.ExecContext(ctx,
			`UPDATE project_members SET user_id = $2, status = $3, updated_at = $4 WHERE id = $1`,
			id, userID, string(domain.StatusActive), now)
		if err != nil {
			return fmt.Errorf("activate member %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// GetFirstActiveByUser returns the oldest active membership for userID, or nil if none.
func (r *PostgresRepository) GetFirstActiveByUser(ctx context.Context, userID string) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM project_members
		 WHERE user_id = $1 AND status = $2 ORDER BY created_at ASC LIMIT 1`,
		userID, string(domain.StatusActive))
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(s scanner) (*domain.Member, error) {
	var (
		m                  domain.Member
		userID, platformID sql.NullString
		role, status       string
	)
	if err := s.Scan(&m.ID, &userID, &m.Email, &platformID, &m.ProjectID, &role, &status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.UserID = userID.String
	m.PlatformID = platformID.String
	m.Role = domain.Role(role)
	m.Status = domain.Status(status)
	return &m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
