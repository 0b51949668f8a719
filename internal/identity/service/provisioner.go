package service

import (
	"context"
	"errors"

	identitydomain "authcore/internal/identity/domain"
	userdomain "authcore/internal/user/domain"
)

// Directory is the user store used by the flows. Create hashes the plaintext password
// and returns userdomain.ErrDuplicateEmail when the email is taken in the platform scope.
type Directory interface {
	GetByPlatformAndEmail(ctx context.Context, platformID, email string) (*userdomain.User, error)
	Create(ctx context.Context, nu userdomain.NewUser) (*userdomain.User, error)
}

// provision creates the account. There is no existence pre-check: the directory's unique
// index decides races, and its duplicate signal becomes a DuplicateAccountError.
func provision(ctx context.Context, dir Directory, req identitydomain.SignUpRequest) (*userdomain.User, error) {
	u, err := dir.Create(ctx, userdomain.NewUser{
		PlatformID:  req.PlatformID,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Status:      req.Status,
		TrackEvents: req.TrackEvents,
		NewsLetter:  req.NewsLetter,
	})
	if errors.Is(err, userdomain.ErrDuplicateEmail) {
		return nil, &DuplicateAccountError{Email: userdomain.NormalizeEmail(req.Email), PlatformID: req.PlatformID}
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
