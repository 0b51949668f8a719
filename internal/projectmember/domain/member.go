package domain

import (
	"time"
)

// Member links an email (and, once bound, a user) to a project with a role.
// Invitations are PENDING members whose UserID is empty.
type Member struct {
	ID         string
	UserID     string
	Email      string
	PlatformID string
	ProjectID  string
	Role       Role
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusPending Status = "PENDING"
)
