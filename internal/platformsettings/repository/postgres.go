package repository

import (
	"context"
	"database/sql"
	"errors"

	"authcore/internal/platformsettings/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a platform flag repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the flag for id, or nil if not found.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Flag, error) {
	f := &domain.Flag{ID: id}
	err := r.db.QueryRowContext(ctx, `SELECT value FROM platform_flags WHERE id = $1`, id).Scan(&f.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// UserCreated reads the USER_CREATED flag. A missing row means no user exists yet.
func (r *PostgresRepository) UserCreated(ctx context.Context) (bool, error) {
	f, err := r.Get(ctx, domain.FlagUserCreated)
	if err != nil {
		return false, err
	}
	return f.Bool(), nil
}
