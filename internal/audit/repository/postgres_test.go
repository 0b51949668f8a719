package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"authcore/internal/audit/domain"
)

func TestCreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs("a1", "_default", "u1", domain.ActionSignIn, "user", "cli", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM audit_logs WHERE platform_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("_default", int32(10), int32(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "platform_id", "user_id", "action", "resource", "ip", "metadata", "created_at"}).
			AddRow("a1", "_default", "u1", domain.ActionSignIn, "user", "cli", "", now))

	ctx := context.Background()
	if err := repo.Create(ctx, &domain.AuditLog{
		ID: "a1", PlatformID: "_default", UserID: "u1", Action: domain.ActionSignIn, Resource: "user", IP: "cli", CreatedAt: now,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, err := repo.ListByPlatform(ctx, "_default", 10, 0)
	if err != nil {
		t.Fatalf("ListByPlatform: %v", err)
	}
	if len(list) != 1 || list[0].ID != "a1" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
