// Package domain holds the inputs and outputs of the authentication flows.
package domain

import (
	userdomain "authcore/internal/user/domain"
)

// SignUpRequest creates a new account. PlatformID is empty for the default scope.
// ReferringUserID, when set, is handed to the post-sign-up hook.
type SignUpRequest struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Status          userdomain.UserStatus
	PlatformID      string
	TrackEvents     bool
	NewsLetter      bool
	ReferringUserID string
}

// SignInRequest authenticates with email and password.
type SignInRequest struct {
	Email      string
	Password   string
	PlatformID string
}

// FederatedRequest carries an identity already asserted by an external provider. It has no secret.
type FederatedRequest struct {
	Email      string
	Status     userdomain.UserStatus
	FirstName  string
	LastName   string
	PlatformID string
}

// AuthenticationResponse is returned by every successful flow. It embeds the user view,
// so the password is never part of it.
type AuthenticationResponse struct {
	userdomain.View
	Token     string `json:"token"`
	ProjectID string `json:"projectId"`
}
