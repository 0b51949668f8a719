package repository

import (
	"context"

	"authcore/internal/policy/domain"
)

// Repository defines persistence for sign-up policies.
type Repository interface {
	ListEnabled(ctx context.Context) ([]*domain.Policy, error)
	Create(ctx context.Context, p *domain.Policy) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
}
