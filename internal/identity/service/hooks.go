package service

import (
	"context"

	projectdomain "authcore/internal/project/domain"
	userdomain "authcore/internal/user/domain"
)

// PostAuthResult is what the hooks hand back: the user (possibly updated), the active project and a session token.
type PostAuthResult struct {
	User    *userdomain.User
	Project *projectdomain.Project
	Token   string
}

// Hooks run edition-specific side effects after an account is created or authenticated.
type Hooks interface {
	AfterSignUp(ctx context.Context, u *userdomain.User, referringUserID string) (*PostAuthResult, error)
	AfterSignIn(ctx context.Context, u *userdomain.User) (*PostAuthResult, error)
}
