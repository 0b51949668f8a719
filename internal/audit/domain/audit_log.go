package domain

import "time"

// Actions recorded by the authentication flows.
const (
	ActionSignUp          = "sign_up"
	ActionSignIn          = "sign_in"
	ActionSignInFailure   = "sign_in_failure"
	ActionFederatedSignIn = "federated_sign_in"
	ActionReferral        = "referral"
)

// AuditLog represents an audit event.
type AuditLog struct {
	ID         string
	PlatformID string
	UserID     string
	Action     string
	Resource   string
	IP         string
	Metadata   string
	CreatedAt  time.Time
}
