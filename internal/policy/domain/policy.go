package domain

import "time"

// Policy is a Rego module evaluated before a new account is created.
// Rules must declare package authcore.signup and may define a deny set of reasons.
type Policy struct {
	ID        string
	Name      string
	Rules     string
	Enabled   bool
	CreatedAt time.Time
}
