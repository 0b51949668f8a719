package repository

import (
	"context"

	"authcore/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListByPlatform(ctx context.Context, platformID string, limit, offset int32) ([]*domain.AuditLog, error)
}
