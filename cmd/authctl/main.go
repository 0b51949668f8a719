// authctl runs the authentication flows from the command line and prints the JSON response.
//
//	authctl signup -email a@x.com [-password p] [-first Ada] [-last Lovelace] [-platform id] [-referrer id]
//	authctl signin -email a@x.com [-password p] [-platform id]
//	authctl federated -email a@x.com [-status VERIFIED] [-first Ada] [-last Lovelace] [-platform id]
//	authctl verify-token <token>
//	authctl health
//
// When -password is omitted it is read from the terminal without echo.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"authcore/internal/app"
	"authcore/internal/audit"
	"authcore/internal/config"
	"authcore/internal/health"
	identitydomain "authcore/internal/identity/domain"
	identityservice "authcore/internal/identity/service"
	"authcore/internal/logging"
	"authcore/internal/security"
	userdomain "authcore/internal/user/domain"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Authenticator is the part of the core the CLI drives.
type Authenticator interface {
	SignUp(ctx context.Context, req identitydomain.SignUpRequest) (*identitydomain.AuthenticationResponse, error)
	SignIn(ctx context.Context, req identitydomain.SignInRequest) (*identitydomain.AuthenticationResponse, error)
	FederatedAuthenticate(ctx context.Context, req identitydomain.FederatedRequest) (*identitydomain.AuthenticationResponse, error)
}

// TokenValidator validates session tokens.
type TokenValidator interface {
	ValidateAccess(token string) (*security.AccessClaims, error)
}

// HealthChecker reports readiness of the database and policy engine.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// services are the backends a subcommand may use. Unused ones may be nil.
type services struct {
	auth   Authenticator
	tokens TokenValidator
	health HealthChecker
}

var errNotServing = errors.New("not serving")

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitRejected = 3
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(exitFailure)
	}
	logger := logging.New(os.Stderr, cfg.SlogLevel(), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Audit entries written on behalf of the CLI have no remote address.
	ctx = audit.WithClientIP(ctx, "local")

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(exitFailure)
	}
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, services{auth: a.Auth, tokens: a.Tokens, health: a.Health})
	if err := a.Close(context.Background()); err != nil {
		logger.Warn("shutdown", "error", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, svc services) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	cmd, args := args[0], args[1:]

	var (
		result any
		err    error
	)
	switch cmd {
	case "signup":
		result, err = signUp(ctx, args, stderr, svc.auth)
	case "signin":
		result, err = signIn(ctx, args, stderr, svc.auth)
	case "federated":
		result, err = federated(ctx, args, stderr, svc.auth)
	case "verify-token":
		result, err = verifyToken(args, svc.tokens)
	case "health":
		report := svc.health.Check(ctx)
		if code := writeJSON(stdout, stderr, report); code != exitOK {
			return code
		}
		if report.Status != health.StatusServing {
			fmt.Fprintln(stderr, "authctl:", errNotServing)
			return exitFailure
		}
		return exitOK
	default:
		usage(stderr)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintln(stderr, "authctl:", err)
		return exitCode(err)
	}
	return writeJSON(stdout, stderr, result)
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(stderr, "authctl:", err)
		return exitFailure
	}
	return exitOK
}

var errUsage = errors.New("usage error")

func exitCode(err error) int {
	switch {
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.Is(err, identityservice.ErrInvalidCredentials),
		errors.Is(err, identityservice.ErrAccountNotVerified),
		errors.Is(err, identityservice.ErrSignUpDisabled),
		errors.Is(err, identityservice.ErrInvitationOnlySignUp),
		errors.Is(err, identityservice.ErrSignUpRejected),
		errors.Is(err, identityservice.ErrDuplicateAccount),
		errors.Is(err, security.ErrInvalidToken):
		return exitRejected
	default:
		return exitFailure
	}
}

func signUp(ctx context.Context, args []string, stderr io.Writer, auth Authenticator) (any, error) {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "account email (required)")
	password := fs.String("password", "", "password; prompted when empty")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	status := fs.String("status", string(userdomain.UserStatusUnverified), "initial status")
	platform := fs.String("platform", "", "platform id; empty for the default scope")
	referrer := fs.String("referrer", "", "referring user id")
	trackEvents := fs.Bool("track-events", true, "opt in to product telemetry")
	newsLetter := fs.Bool("newsletter", false, "opt in to the newsletter")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if *email == "" {
		return nil, fmt.Errorf("%w: -email is required", errUsage)
	}
	pw, err := passwordOrPrompt(*password, stderr)
	if err != nil {
		return nil, err
	}
	return auth.SignUp(ctx, identitydomain.SignUpRequest{
		Email:           *email,
		Password:        pw,
		FirstName:       *first,
		LastName:        *last,
		Status:          userdomain.UserStatus(*status),
		PlatformID:      *platform,
		TrackEvents:     *trackEvents,
		NewsLetter:      *newsLetter,
		ReferringUserID: *referrer,
	})
}

func signIn(ctx context.Context, args []string, stderr io.Writer, auth Authenticator) (any, error) {
	fs := flag.NewFlagSet("signin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "account email (required)")
	password := fs.String("password", "", "password; prompted when empty")
	platform := fs.String("platform", "", "platform id; empty for the default scope")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if *email == "" {
		return nil, fmt.Errorf("%w: -email is required", errUsage)
	}
	pw, err := passwordOrPrompt(*password, stderr)
	if err != nil {
		return nil, err
	}
	return auth.SignIn(ctx, identitydomain.SignInRequest{Email: *email, Password: pw, PlatformID: *platform})
}

func federated(ctx context.Context, args []string, stderr io.Writer, auth Authenticator) (any, error) {
	fs := flag.NewFlagSet("federated", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "asserted email (required)")
	status := fs.String("status", string(userdomain.UserStatusVerified), "asserted status")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	platform := fs.String("platform", "", "platform id; empty for the default scope")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if *email == "" {
		return nil, fmt.Errorf("%w: -email is required", errUsage)
	}
	return auth.FederatedAuthenticate(ctx, identitydomain.FederatedRequest{
		Email:      *email,
		Status:     userdomain.UserStatus(*status),
		FirstName:  *first,
		LastName:   *last,
		PlatformID: *platform,
	})
}

func verifyToken(args []string, tokens TokenValidator) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: verify-token takes exactly one token", errUsage)
	}
	return tokens.ValidateAccess(args[0])
}

func passwordOrPrompt(password string, w io.Writer) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(w, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: authctl <signup|signin|federated|verify-token|health> [flags]")
}
