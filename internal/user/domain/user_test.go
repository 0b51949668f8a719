package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUser_ViewOmitsPassword(t *testing.T) {
	u := &User{
		ID:          "u1",
		Email:       "a@example.com",
		FirstName:   "Ada",
		Status:      UserStatusVerified,
		Password:    "$2a$10$hash",
		TrackEvents: true,
		CreatedAt:   time.Unix(0, 0).UTC(),
	}
	b, err := json.Marshal(u.View())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "password") || strings.Contains(s, "$2a$10$hash") {
		t.Errorf("view leaks password: %s", s)
	}
	if !strings.Contains(s, `"email":"a@example.com"`) || !strings.Contains(s, `"status":"VERIFIED"`) {
		t.Errorf("view missing fields: %s", s)
	}
	if strings.Contains(s, "platformId") {
		t.Errorf("empty platform id should be omitted: %s", s)
	}
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"ok", User{Email: "a@b.c", Password: "h"}, false},
		{"no email", User{Password: "h"}, true},
		{"no password", User{Email: "a@b.c"}, true},
		{"bad status", User{Email: "a@b.c", Password: "h", Status: "ACTIVE"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.user
			err := u.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && u.Status != UserStatusUnverified {
				t.Errorf("default status = %q, want UNVERIFIED", u.Status)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
