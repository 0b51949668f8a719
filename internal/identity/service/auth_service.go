// Package service orchestrates sign-up, sign-in and federated authentication.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"authcore/internal/audit"
	auditdomain "authcore/internal/audit/domain"
	identitydomain "authcore/internal/identity/domain"
	"authcore/internal/telemetry"
	userdomain "authcore/internal/user/domain"
)

const instrumentationName = "authcore/internal/identity/service"

// Operation names used on spans and the attempts counter.
const (
	opSignUp    = "sign_up"
	opSignIn    = "sign_in"
	opFederated = "federated_authenticate"
)

// Deps holds the collaborators of AuthService. Evaluator, Audit, Telemetry and Logger are optional.
type Deps struct {
	Directory Directory
	Hasher    Hasher
	// DummyHash is compared against when the email is unknown so both invalid-credential paths do the same work.
	DummyHash string
	Flags     FlagStore
	Policy    SignUpPolicy
	Evaluator SignUpEvaluator
	Hooks     Hooks
	Telemetry telemetry.Sink
	Audit     audit.AuditLogger
	Logger    *slog.Logger
}

// AuthService implements SignUp, SignIn and FederatedAuthenticate. It keeps no state between calls.
type AuthService struct {
	dir       Directory
	hasher    Hasher
	dummyHash string
	gate      gate
	hooks     Hooks
	telemetry telemetry.Sink
	audit     audit.AuditLogger
	logger    *slog.Logger
	tracer    trace.Tracer
	attempts  metric.Int64Counter
}

// NewAuthService returns an AuthService built from deps.
func NewAuthService(deps Deps) *AuthService {
	sink := deps.Telemetry
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts, err := otel.Meter(instrumentationName).Int64Counter(
		"authcore.auth.attempts",
		metric.WithDescription("Authentication attempts by operation and outcome."),
	)
	if err != nil {
		attempts = noop.Int64Counter{}
	}
	return &AuthService{
		dir:       deps.Directory,
		hasher:    deps.Hasher,
		dummyHash: deps.DummyHash,
		gate:      gate{policy: deps.Policy, flags: deps.Flags, evaluator: deps.Evaluator},
		hooks:     deps.Hooks,
		telemetry: sink,
		audit:     deps.Audit,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		attempts:  attempts,
	}
}

// SignUp creates an account and runs the post-sign-up hooks.
// Returns ErrSignUpDisabled, ErrInvitationOnlySignUp, *SignUpRejectedError or *DuplicateAccountError on refusal.
func (s *AuthService) SignUp(ctx context.Context, req identitydomain.SignUpRequest) (*identitydomain.AuthenticationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.SignUp")
	defer span.End()
	resp, err := s.signUp(ctx, req, false)
	s.finish(ctx, span, opSignUp, err)
	return resp, err
}

// SignIn authenticates with email and password. Unknown email and wrong password both return
// ErrInvalidCredentials; an account that is not VERIFIED returns *AccountNotVerifiedError.
func (s *AuthService) SignIn(ctx context.Context, req identitydomain.SignInRequest) (*identitydomain.AuthenticationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.SignIn")
	defer span.End()
	resp, err := s.signIn(ctx, req)
	s.finish(ctx, span, opSignIn, err)
	return resp, err
}

// FederatedAuthenticate signs in an identity asserted by an external provider. A known account is
// signed in without a password check; otherwise an account is created through SignUp with a random
// password, so every sign-up refusal applies.
func (s *AuthService) FederatedAuthenticate(ctx context.Context, req identitydomain.FederatedRequest) (*identitydomain.AuthenticationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.FederatedAuthenticate")
	defer span.End()
	resp, err := s.federated(ctx, req)
	s.finish(ctx, span, opFederated, err)
	return resp, err
}

func (s *AuthService) signUp(ctx context.Context, req identitydomain.SignUpRequest, federated bool) (*identitydomain.AuthenticationResponse, error) {
	req.Email = userdomain.NormalizeEmail(req.Email)
	if err := s.gate.check(ctx, req, federated); err != nil {
		return nil, err
	}
	u, err := provision(ctx, s.dir, req)
	if err != nil {
		return nil, err
	}
	res, err := s.hooks.AfterSignUp(ctx, u, req.ReferringUserID)
	if err != nil {
		return nil, err
	}
	resp := buildResponse(u, res)
	s.logEvent(ctx, u, auditdomain.ActionSignUp, "user")
	s.reportSignUp(ctx, u, resp.ProjectID)
	return resp, nil
}

func (s *AuthService) signIn(ctx context.Context, req identitydomain.SignInRequest) (*identitydomain.AuthenticationResponse, error) {
	u, err := s.dir.GetByPlatformAndEmail(ctx, req.PlatformID, userdomain.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		if s.dummyHash != "" {
			_, _ = s.hasher.Compare(req.Password, s.dummyHash)
		}
		s.logFailure(ctx, req.PlatformID, "")
		return nil, ErrInvalidCredentials
	}
	if u.Status != userdomain.UserStatusVerified {
		return nil, &AccountNotVerifiedError{Email: u.Email}
	}
	if err := verify(s.hasher, req.Password, u.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logFailure(ctx, u.PlatformID, u.ID)
		}
		return nil, err
	}
	resp, err := s.signInResponse(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, u, auditdomain.ActionSignIn, "session")
	return resp, nil
}

func (s *AuthService) federated(ctx context.Context, req identitydomain.FederatedRequest) (*identitydomain.AuthenticationResponse, error) {
	u, err := s.dir.GetByPlatformAndEmail(ctx, req.PlatformID, userdomain.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u != nil {
		resp, err := s.signInResponse(ctx, u)
		if err != nil {
			return nil, err
		}
		s.logEvent(ctx, u, auditdomain.ActionFederatedSignIn, "session")
		return resp, nil
	}
	secret, err := s.hasher.GenerateRandomSecret()
	if err != nil {
		return nil, err
	}
	return s.signUp(ctx, identitydomain.SignUpRequest{
		Email:       req.Email,
		Password:    secret,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Status:      req.Status,
		PlatformID:  req.PlatformID,
		TrackEvents: true,
		NewsLetter:  true,
	}, true)
}

func (s *AuthService) signInResponse(ctx context.Context, u *userdomain.User) (*identitydomain.AuthenticationResponse, error) {
	res, err := s.hooks.AfterSignIn(ctx, u)
	if err != nil {
		return nil, err
	}
	return buildResponse(u, res), nil
}

// buildResponse strips the password. The hook's user wins over u when it returned one.
func buildResponse(u *userdomain.User, res *PostAuthResult) *identitydomain.AuthenticationResponse {
	resp := &identitydomain.AuthenticationResponse{}
	if res != nil && res.User != nil {
		u = res.User
	}
	resp.View = u.View()
	if res != nil {
		resp.Token = res.Token
		if res.Project != nil {
			resp.ProjectID = res.Project.ID
		}
	}
	return resp
}

// reportSignUp sends identify and then signed.up to the telemetry sink as one ordered unit;
// signed.up is dropped when identify fails. Errors and panics are logged, never returned.
func (s *AuthService) reportSignUp(ctx context.Context, u *userdomain.User, projectID string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WarnContext(ctx, "telemetry: sign-up report panicked", "user_id", u.ID, "panic", r)
		}
	}()
	identity := telemetry.Identity{
		UserID:      u.ID,
		PlatformID:  u.PlatformID,
		ProjectID:   projectID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		TrackEvents: u.TrackEvents,
		NewsLetter:  u.NewsLetter,
		CreatedAt:   u.CreatedAt,
	}
	signedUp := telemetry.Event{
		Name:       telemetry.EventSignedUp,
		UserID:     u.ID,
		PlatformID: u.PlatformID,
		ProjectID:  projectID,
		Payload: map[string]string{
			"userId":    u.ID,
			"email":     u.Email,
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"projectId": projectID,
		},
	}
	if err := telemetry.Sequence(ctx, s.telemetry, identity, signedUp); err != nil {
		s.logger.WarnContext(ctx, "telemetry: sign-up report failed", "user_id", u.ID, "error", err)
	}
}

func (s *AuthService) logEvent(ctx context.Context, u *userdomain.User, action, resource string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, u.PlatformID, u.ID, action, resource, "")
}

func (s *AuthService) logFailure(ctx context.Context, platformID, userID string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, platformID, userID, auditdomain.ActionSignInFailure, "session", "invalid credentials")
}

// finish records the outcome on the span and the attempts counter.
func (s *AuthService) finish(ctx context.Context, span trace.Span, op string, err error) {
	outcome := outcomeOf(err)
	span.SetAttributes(attribute.String("auth.outcome", outcome))
	if err != nil && outcome == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

// outcomeOf maps err to a low-cardinality label. Refusals are expected outcomes, not span errors.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountNotVerified):
		return "not_verified"
	case errors.Is(err, ErrSignUpDisabled):
		return "sign_up_disabled"
	case errors.Is(err, ErrInvitationOnlySignUp):
		return "invitation_only"
	case errors.Is(err, ErrSignUpRejected):
		return "rejected"
	case errors.Is(err, ErrDuplicateAccount):
		return "duplicate"
	default:
		return "error"
	}
}
