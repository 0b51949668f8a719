package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestListEnabled(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM signup_policies WHERE enabled ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rules", "enabled", "created_at"}).
			AddRow("p1", "corp only", "package authcore.signup", true, now))

	list, err := NewPostgresRepository(db).ListEnabled(context.Background())
	if err != nil {
		t.Fatalf("ListEnabled: %v", err)
	}
	if len(list) != 1 || list[0].Name != "corp only" || !list[0].Enabled {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestListEnabled_Error(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("db down"))
	if _, err := NewPostgresRepository(db).ListEnabled(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetEnabled(t *testing.T) {
	db, mock, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	defer db.Close()
	mock.ExpectExec(`UPDATE signup_policies SET enabled = \$2 WHERE id = \$1`).
		WithArgs("p1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := NewPostgresRepository(db).SetEnabled(context.Background(), "p1", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
}
