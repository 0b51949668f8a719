package repository

import (
	"context"

	"authcore/internal/platformsettings/domain"
)

// Repository defines read access to platform flags.
type Repository interface {
	// Get returns the flag with id, or nil if it has never been set.
	Get(ctx context.Context, id string) (*domain.Flag, error)
	// UserCreated reports whether any user account has ever been created.
	UserCreated(ctx context.Context) (bool, error)
}
