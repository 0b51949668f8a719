// Package service implements the user directory used by the authentication core.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"authcore/internal/user/domain"
)

// PasswordHasher hashes plaintext passwords for storage.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Repository is the subset of the user repository the directory needs.
type Repository interface {
	GetByPlatformAndEmail(ctx context.Context, platformID, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// Directory creates and looks up users. Passwords are hashed here, at the
// storage boundary, so plaintext never reaches the repository.
type Directory struct {
	repo   Repository
	hasher PasswordHasher
	now    func() time.Time
}

// NewDirectory returns a Directory backed by repo.
func NewDirectory(repo Repository, hasher PasswordHasher) *Directory {
	return &Directory{repo: repo, hasher: hasher, now: time.Now}
}

// GetByPlatformAndEmail returns the user or nil when absent. The email is normalized first.
func (d *Directory) GetByPlatformAndEmail(ctx context.Context, platformID, email string) (*domain.User, error) {
	return d.repo.GetByPlatformAndEmail(ctx, platformID, domain.NormalizeEmail(email))
}

// Create hashes the password, assigns id and timestamps, and persists the user.
// Returns domain.ErrDuplicateEmail if the email is taken in the platform scope.
func (d *Directory) Create(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	if nu.Password == "" {
		return nil, errors.New("password is required")
	}
	hash, err := d.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}
	now := d.now().UTC()
	u := &domain.User{
		ID:          uuid.NewString(),
		PlatformID:  nu.PlatformID,
		Email:       domain.NormalizeEmail(nu.Email),
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Status:      nu.Status,
		Password:    hash,
		TrackEvents: nu.TrackEvents,
		NewsLetter:  nu.NewsLetter,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := d.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
