package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"authcore/internal/db"
	settingsdomain "authcore/internal/platformsettings/domain"
	"authcore/internal/user/domain"
)

const uniqueEmailConstraint = "users_platform_email_key"

const userColumns = `id, platform_id, email, first_name, last_name, status, password, track_events, news_letter, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByPlatformAndEmail returns the user with the given email in the platform scope, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByPlatformAndEmail(ctx context.Context, platformID, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE COALESCE(platform_id, '') = $1 AND email = $2`,
		platformID, email)
	return scanUser(row)
}

// Create persists the user and sets the USER_CREATED flag atomically. The user must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, nullString(u.PlatformID), u.Email, u.FirstName, u.LastName, string(u.Status),
		u.Password, u.TrackEvents, u.NewsLetter, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err, uniqueEmailConstraint) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO platform_flags (id, value, updated_at) VALUES ($1, 'true', $2) ON CONFLICT (id) DO NOTHING`,
		settingsdomain.FlagUserCreated, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("set %s flag: %w", settingsdomain.FlagUserCreated, err)
	}
	return tx.Commit()
}

// UpdateStatus sets the user's status. Missing users are not an error.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u          domain.User
		platformID sql.NullString
		status     string
	)
	err := row.Scan(&u.ID, &platformID, &u.Email, &u.FirstName, &u.LastName, &status,
		&u.Password, &u.TrackEvents, &u.NewsLetter, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.PlatformID = platformID.String
	u.Status = domain.UserStatus(status)
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
