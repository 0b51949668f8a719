package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrDuplicateEmail is returned by the directory when a user with the same email
// already exists in the same platform scope.
var ErrDuplicateEmail = errors.New("email already registered in platform")

// UserStatus is the verification state of an account.
type UserStatus string

const (
	UserStatusUnverified UserStatus = "UNVERIFIED"
	UserStatusVerified   UserStatus = "VERIFIED"
	UserStatusSuspended  UserStatus = "SUSPENDED"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusUnverified, UserStatusVerified, UserStatusSuspended:
		return true
	}
	return false
}

// User is the core user entity. PlatformID is empty for the default scope.
// Password holds the stored hash and never leaves the service; see View.
type User struct {
	ID          string
	PlatformID  string
	Email       string
	FirstName   string
	LastName    string
	Status      UserStatus
	Password    string
	TrackEvents bool
	NewsLetter  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewUser carries the fields needed to create a user. Password is plaintext;
// the directory hashes it before persisting.
type NewUser struct {
	PlatformID  string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Status      UserStatus
	TrackEvents bool
	NewsLetter  bool
}

// View is the externally visible shape of a user. It has no password field.
type View struct {
	ID          string     `json:"id"`
	PlatformID  string     `json:"platformId,omitempty"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Status      UserStatus `json:"status"`
	TrackEvents bool       `json:"trackEvents"`
	NewsLetter  bool       `json:"newsLetter"`
	CreatedAt   time.Time  `json:"created"`
	UpdatedAt   time.Time  `json:"updated"`
}

// View returns u without its password.
func (u *User) View() View {
	return View{
		ID:          u.ID,
		PlatformID:  u.PlatformID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Status:      u.Status,
		TrackEvents: u.TrackEvents,
		NewsLetter:  u.NewsLetter,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Password == "" {
		return errors.New("password hash is required")
	}
	if u.Status == "" {
		u.Status = UserStatusUnverified
	}
	if !u.Status.Valid() {
		return errors.New("unknown user status")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
