package repository

import (
	"context"

	"authcore/internal/projectmember/domain"
)

// Repository defines persistence for project members.
type Repository interface {
	Create(ctx context.Context, m *domain.Member) error
	// ListPendingByEmail returns PENDING invitations for email in the platform scope, oldest first.
	ListPendingByEmail(ctx context.Context, platformID, email string) ([]*domain.Member, error)
	// Activate binds userID to the members and marks them ACTIVE, all or none.
	Activate(ctx context.Context, userID string, ids ...string) error
	// GetFirstActiveByUser returns the oldest ACTIVE membership of userID, or nil.
	GetFirstActiveByUser(ctx context.Context, userID string) (*domain.Member, error)
}
