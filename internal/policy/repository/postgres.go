package repository

import (
	"context"
	"database/sql"

	"authcore/internal/policy/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a policy repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListEnabled returns enabled policies in creation order. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListEnabled(ctx context.Context) ([]*domain.Policy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, rules, enabled, created_at FROM signup_policies WHERE enabled ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Policy
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(&p.ID, &p.Name, &p.Rules, &p.Enabled, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Create persists the policy to the database. The policy must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Policy) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO signup_policies (id, name, rules, enabled, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.Rules, p.Enabled, p.CreatedAt)
	return err
}

// SetEnabled toggles a policy. Missing policies are not an error.
func (r *PostgresRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE signup_policies SET enabled = $2 WHERE id = $1`, id, enabled)
	return err
}
