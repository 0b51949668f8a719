package hooks

import (
	"context"
	"log/slog"

	"authcore/internal/identity/service"
	projectdomain "authcore/internal/project/domain"
	userdomain "authcore/internal/user/domain"
)

// StatusUpdater changes a user's verification status.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status userdomain.UserStatus) error
}

// Platform extends Community with invitations: pending project memberships for the user's email
// are accepted on sign-up and sign-in, and the invited project becomes the active one.
type Platform struct {
	*Community
	users  StatusUpdater
	logger *slog.Logger
}

var _ service.Hooks = (*Platform)(nil)

// NewPlatform wraps community with invitation handling.
func NewPlatform(community *Community, users StatusUpdater, logger *slog.Logger) *Platform {
	if logger == nil {
		logger = slog.Default()
	}
	return &Platform{Community: community, users: users, logger: logger}
}

// AfterSignUp accepts invitations; without any it falls back to a personal project.
func (p *Platform) AfterSignUp(ctx context.Context, u *userdomain.User, referringUserID string) (*service.PostAuthResult, error) {
	u, invited, err := p.acceptInvitations(ctx, u)
	if err != nil {
		return nil, err
	}
	if invited == nil {
		return p.Community.AfterSignUp(ctx, u, referringUserID)
	}
	p.recordReferral(ctx, u, referringUserID)
	return p.result(u, invited)
}

// AfterSignIn accepts invitations received since the last sign-in, then resolves the project like Community.
func (p *Platform) AfterSignIn(ctx context.Context, u *userdomain.User) (*service.PostAuthResult, error) {
	u, invited, err := p.acceptInvitations(ctx, u)
	if err != nil {
		return nil, err
	}
	if invited == nil {
		return p.Community.AfterSignIn(ctx, u)
	}
	return p.result(u, invited)
}

// acceptInvitations activates every pending invitation for u's email in u's platform and returns
// the project of the oldest one. An accepted invitation proves the email, so an UNVERIFIED user
// becomes VERIFIED. The returned user is a copy when its status changed.
func (p *Platform) acceptInvitations(ctx context.Context, u *userdomain.User) (*userdomain.User, *projectdomain.Project, error) {
	pending, err := p.members.ListPendingByEmail(ctx, u.PlatformID, u.Email)
	if err != nil {
		return nil, nil, err
	}
	if len(pending) == 0 {
		return u, nil, nil
	}
	ids := make([]string, 0, len(pending))
	for _, m := range pending {
		ids = append(ids, m.ID)
	}
	if err := p.members.Activate(ctx, u.ID, ids...); err != nil {
		return nil, nil, err
	}
	if u.Status == userdomain.UserStatusUnverified {
		if err := p.users.UpdateStatus(ctx, u.ID, userdomain.UserStatusVerified); err != nil {
			return nil, nil, err
		}
		promoted := *u
		promoted.Status = userdomain.UserStatusVerified
		u = &promoted
	}
	project, err := p.projects.GetByID(ctx, pending[0].ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		p.logger.WarnContext(ctx, "hooks: invitation points at missing project", "member_id", pending[0].ID, "project_id", pending[0].ProjectID)
	}
	return u, project, nil
}
