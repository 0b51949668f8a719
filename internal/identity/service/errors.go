package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the authentication flows; callers match with errors.Is.
var (
	ErrSignUpDisabled       = errors.New("sign-up is disabled")
	ErrInvitationOnlySignUp = errors.New("sign-up is by invitation only on this platform")
	ErrDuplicateAccount     = errors.New("account already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountNotVerified   = errors.New("account is not verified")
	ErrSignUpRejected       = errors.New("sign-up rejected by policy")
)

// DuplicateAccountError reports the email that is already registered in the platform scope.
type DuplicateAccountError struct {
	Email      string
	PlatformID string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account with email %s already exists", e.Email)
}

func (e *DuplicateAccountError) Unwrap() error { return ErrDuplicateAccount }

// AccountNotVerifiedError carries the email of the unverified account so callers can offer re-verification.
type AccountNotVerifiedError struct {
	Email string
}

func (e *AccountNotVerifiedError) Error() string {
	return fmt.Sprintf("account %s is not verified", e.Email)
}

func (e *AccountNotVerifiedError) Unwrap() error { return ErrAccountNotVerified }

// SignUpRejectedError lists the reasons returned by sign-up admission policies.
type SignUpRejectedError struct {
	Reasons []string
}

func (e *SignUpRejectedError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrSignUpRejected.Error()
	}
	return ErrSignUpRejected.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *SignUpRejectedError) Unwrap() error { return ErrSignUpRejected }
