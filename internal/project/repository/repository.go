package repository

import (
	"context"

	"authcore/internal/project/domain"
	memberdomain "authcore/internal/projectmember/domain"
)

// Repository defines persistence for projects.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// GetFirstByOwner returns the oldest project owned by ownerID, or nil.
	GetFirstByOwner(ctx context.Context, ownerID string) (*domain.Project, error)
	// CreateWithOwner inserts the project and the owner's membership in one transaction.
	CreateWithOwner(ctx context.Context, p *domain.Project, owner *memberdomain.Member) error
}
