// Package audit records authentication events. Recording is best effort and never fails a flow.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"authcore/internal/audit/domain"
	auditrepo "authcore/internal/audit/repository"
)

// DefaultPlatformID is the platform_id recorded for events in the default (self-hosted) scope.
const DefaultPlatformID = "_default"

type clientIPKey struct{}

// WithClientIP returns a context carrying the caller's address for audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP, or "unknown".
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, platformID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo   auditrepo.Repository
	logger *slog.Logger
}

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{repo: repo, logger: logger}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, platformID, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	if platformID == "" {
		platformID = DefaultPlatformID
	}
	entry := &domain.AuditLog{
		ID:         uuid.NewString(),
		PlatformID: platformID,
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		IP:         ClientIP(ctx),
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.WarnContext(ctx, "audit: failed to log event", "action", action, "resource", resource, "error", err)
	}
}
