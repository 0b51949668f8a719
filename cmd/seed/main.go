// seed bootstraps a development database: the first account (created through SignUp, which is
// always allowed while no account exists), a pending invitation and a disabled sample sign-up policy.
// Idempotent: skips if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"authcore/internal/app"
	"authcore/internal/config"
	"authcore/internal/db"
	identitydomain "authcore/internal/identity/domain"
	identityservice "authcore/internal/identity/service"
	"authcore/internal/logging"
	policydomain "authcore/internal/policy/domain"
	policyengine "authcore/internal/policy/engine"
	policyrepo "authcore/internal/policy/repository"
	memberdomain "authcore/internal/projectmember/domain"
	projectmemberrepo "authcore/internal/projectmember/repository"
	userdomain "authcore/internal/user/domain"
)

const (
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
	memberEmail  = "member@example.com"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.SlogLevel(), cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not set; create a .env or set DATABASE_URL")
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db open failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	a, err := app.NewWithDB(ctx, cfg, conn, logger)
	if err != nil {
		logger.Error("wiring failed", "error", err)
		os.Exit(1)
	}
	defer a.Close(ctx)

	resp, err := a.Auth.SignUp(ctx, identitydomain.SignUpRequest{
		Email:     devUserEmail,
		Password:  devPassword,
		FirstName: "Dev",
		LastName:  "User",
		Status:    userdomain.UserStatusVerified,
	})
	switch {
	case errors.Is(err, identityservice.ErrDuplicateAccount):
		logger.Info("seed already applied (dev@example.com exists), skipping")
		return
	case errors.Is(err, identityservice.ErrSignUpDisabled):
		logger.Info("seed skipped: accounts already exist and sign-up is disabled")
		return
	case err != nil:
		logger.Error("bootstrap sign-up failed", "error", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	members := projectmemberrepo.NewPostgresRepository(conn)
	if err := members.Create(ctx, &memberdomain.Member{
		ID:        uuid.NewString(),
		Email:     memberEmail,
		ProjectID: resp.ProjectID,
		Role:      memberdomain.RoleEditor,
		Status:    memberdomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		logger.Error("create invitation failed", "error", err)
		os.Exit(1)
	}

	if err := policyrepo.NewPostgresRepository(conn).Create(ctx, &policydomain.Policy{
		ID:        uuid.NewString(),
		Name:      "example.com only",
		Rules:     policyengine.ExamplePolicy,
		Enabled:   false,
		CreatedAt: now,
	}); err != nil {
		logger.Error("create sample policy failed", "error", err)
		os.Exit(1)
	}

	logger.Info("seed completed", "user_id", resp.ID, "project_id", resp.ProjectID)
	fmt.Printf("Dev login: %s / %s\n", devUserEmail, devPassword)
	fmt.Printf("Invited (pending): %s to project %s\n", memberEmail, resp.ProjectID)
}
