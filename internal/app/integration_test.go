//go:build integration

package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"authcore/internal/db/migrate"
	identitydomain "authcore/internal/identity/domain"
	identityservice "authcore/internal/identity/service"
	"authcore/internal/logging"
	userdomain "authcore/internal/user/domain"
)

// startPostgres runs a migrated PostgreSQL container and returns its DSN.
// Tests are skipped if no container runtime is available.
func startPostgres(t *testing.T) string {
	t.Helper()
	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("authcore_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	if err := migrate.Run(dsn, migrate.DirectionUp); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	return dsn
}

func newIntegrationApp(t *testing.T, dsn string, signUpEnabled bool) *App {
	t.Helper()
	cfg := testConfig()
	cfg.DatabaseURL = dsn
	cfg.SignUpEnabled = signUpEnabled
	a, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestIntegration_Flows(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	closed := newIntegrationApp(t, dsn, false)
	first, err := closed.Auth.SignUp(ctx, identitydomain.SignUpRequest{
		Email:     "Owner@Example.com",
		Password:  "correct horse",
		FirstName: "Owner",
		Status:    userdomain.UserStatusVerified,
	})
	if err != nil {
		t.Fatalf("bootstrap SignUp: %v", err)
	}
	if first.Email != "owner@example.com" || first.ProjectID == "" || first.Token == "" {
		t.Fatalf("bootstrap response = %+v", first)
	}
	if _, err := closed.Tokens.ValidateAccess(first.Token); err != nil {
		t.Fatalf("token from sign-up does not validate: %v", err)
	}

	_, err = closed.Auth.SignUp(ctx, identitydomain.SignUpRequest{Email: "second@example.com", Password: "pw"})
	if !errors.Is(err, identityservice.ErrSignUpDisabled) {
		t.Fatalf("second SignUp err = %v, want ErrSignUpDisabled", err)
	}

	signedIn, err := closed.Auth.SignIn(ctx, identitydomain.SignInRequest{Email: "owner@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if signedIn.ProjectID != first.ProjectID {
		t.Errorf("sign-in project = %s, want %s", signedIn.ProjectID, first.ProjectID)
	}
	if _, err := closed.Auth.SignIn(ctx, identitydomain.SignInRequest{Email: "owner@example.com", Password: "wrong"}); !errors.Is(err, identityservice.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}

	fed, err := closed.Auth.FederatedAuthenticate(ctx, identitydomain.FederatedRequest{Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("FederatedAuthenticate existing: %v", err)
	}
	if fed.ID != first.ID {
		t.Errorf("federated user = %s, want %s", fed.ID, first.ID)
	}

	open := newIntegrationApp(t, dsn, true)
	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dups      int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := open.Auth.SignUp(ctx, identitydomain.SignUpRequest{Email: "race@example.com", Password: "pw"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, identityservice.ErrDuplicateAccount):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if successes != 1 || dups != n-1 {
		t.Errorf("successes=%d dups=%d", successes, dups)
	}

	_, err = open.Auth.SignIn(ctx, identitydomain.SignInRequest{Email: "race@example.com", Password: "pw"})
	var nv *identityservice.AccountNotVerifiedError
	if !errors.As(err, &nv) || nv.Email != "race@example.com" {
		t.Errorf("unverified SignIn err = %v", err)
	}
}
