package repository

import (
	"context"

	"authcore/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByPlatformAndEmail returns the user for (platformID, email); empty platformID is the default scope.
	GetByPlatformAndEmail(ctx context.Context, platformID, email string) (*domain.User, error)
	// Create persists u and marks the USER_CREATED platform flag in the same transaction.
	// Returns domain.ErrDuplicateEmail when the email is taken in the platform scope.
	Create(ctx context.Context, u *domain.User) error
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
}
