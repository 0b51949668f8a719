package domain

import (
	"errors"
	"time"
)

// Project is the workspace a session is scoped to. Every account owns at least one.
type Project struct {
	ID          string
	OwnerID     string
	PlatformID  string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the project for persistence. Returns an error describing the first validation failure.
func (p *Project) Validate() error {
	if p.OwnerID == "" {
		return errors.New("owner is required")
	}
	if p.DisplayName == "" {
		return errors.New("display name is required")
	}
	return nil
}
