// Package hooks implements the post-authentication pipelines of the community and platform editions.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"authcore/internal/audit"
	auditdomain "authcore/internal/audit/domain"
	"authcore/internal/identity/service"
	projectdomain "authcore/internal/project/domain"
	memberdomain "authcore/internal/projectmember/domain"
	userdomain "authcore/internal/user/domain"
)

// TokenIssuer issues the session token returned to the caller.
type TokenIssuer interface {
	IssueAccess(userID, projectID, platformID string) (token string, expiresAt time.Time, err error)
}

// ProjectStore is the subset of the project repository the hooks need.
type ProjectStore interface {
	GetByID(ctx context.Context, id string) (*projectdomain.Project, error)
	GetFirstByOwner(ctx context.Context, ownerID string) (*projectdomain.Project, error)
	CreateWithOwner(ctx context.Context, p *projectdomain.Project, owner *memberdomain.Member) error
}

// MemberStore is the subset of the project member repository the hooks need.
type MemberStore interface {
	ListPendingByEmail(ctx context.Context, platformID, email string) ([]*memberdomain.Member, error)
	Activate(ctx context.Context, userID string, ids ...string) error
	GetFirstActiveByUser(ctx context.Context, userID string) (*memberdomain.Member, error)
}

// Community gives every account a personal project and issues a token scoped to it.
type Community struct {
	projects ProjectStore
	members  MemberStore
	tokens   TokenIssuer
	audit    audit.AuditLogger
	logger   *slog.Logger
	now      func() time.Time
}

var _ service.Hooks = (*Community)(nil)

// NewCommunity returns the community edition hooks. auditLog may be nil.
func NewCommunity(projects ProjectStore, members MemberStore, tokens TokenIssuer, auditLog audit.AuditLogger, logger *slog.Logger) *Community {
	if logger == nil {
		logger = slog.Default()
	}
	return &Community{
		projects: projects,
		members:  members,
		tokens:   tokens,
		audit:    auditLog,
		logger:   logger,
		now:      time.Now,
	}
}

// AfterSignUp creates the owner's project and membership, records the referral and issues a token.
func (c *Community) AfterSignUp(ctx context.Context, u *userdomain.User, referringUserID string) (*service.PostAuthResult, error) {
	p, err := c.createProject(ctx, u)
	if err != nil {
		return nil, err
	}
	c.recordReferral(ctx, u, referringUserID)
	return c.result(u, p)
}

// AfterSignIn resolves the active project (owned, else first active membership, else a new one) and issues a token.
func (c *Community) AfterSignIn(ctx context.Context, u *userdomain.User) (*service.PostAuthResult, error) {
	p, err := c.resolveProject(ctx, u)
	if err != nil {
		return nil, err
	}
	return c.result(u, p)
}

func (c *Community) resolveProject(ctx context.Context, u *userdomain.User) (*projectdomain.Project, error) {
	p, err := c.projects.GetFirstByOwner(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	m, err := c.members.GetFirstActiveByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if m != nil {
		p, err = c.projects.GetByID(ctx, m.ProjectID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
		c.logger.WarnContext(ctx, "hooks: membership points at missing project", "member_id", m.ID, "project_id", m.ProjectID)
	}
	return c.createProject(ctx, u)
}

func (c *Community) createProject(ctx context.Context, u *userdomain.User) (*projectdomain.Project, error) {
	now := c.now().UTC()
	p := &projectdomain.Project{
		ID:          uuid.NewString(),
		OwnerID:     u.ID,
		PlatformID:  u.PlatformID,
		DisplayName: projectName(u),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	owner := &memberdomain.Member{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		Email:      u.Email,
		PlatformID: u.PlatformID,
		ProjectID:  p.ID,
		Role:       memberdomain.RoleAdmin,
		Status:     memberdomain.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.projects.CreateWithOwner(ctx, p, owner); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (c *Community) recordReferral(ctx context.Context, u *userdomain.User, referringUserID string) {
	if referringUserID == "" || c.audit == nil {
		return
	}
	meta, _ := json.Marshal(map[string]string{"referringUserId": referringUserID})
	c.audit.LogEvent(ctx, u.PlatformID, u.ID, auditdomain.ActionReferral, "user", string(meta))
}

func (c *Community) result(u *userdomain.User, p *projectdomain.Project) (*service.PostAuthResult, error) {
	token, _, err := c.tokens.IssueAccess(u.ID, p.ID, u.PlatformID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &service.PostAuthResult{User: u, Project: p, Token: token}, nil
}

func projectName(u *userdomain.User) string {
	name := strings.TrimSpace(u.FirstName)
	if name == "" {
		name, _, _ = strings.Cut(u.Email, "@")
	}
	if name == "" {
		name = "My"
	}
	return name + "'s Project"
}
