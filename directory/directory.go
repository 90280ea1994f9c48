package directory

import (
	"context"
	"errors"
	"net/mail"
	"time"
)

var (
	// ErrNotFound is returned when no user matches the given id or email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a create would violate id or email uniqueness.
	ErrDuplicate = errors.New("duplicate user")
)

// User is the identity record owned by the directory. ID and Email are each
// unique within a directory instance. PasswordHash is opaque to this package
// and must never be serialized outward.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Apps         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy so callers can hand users across goroutines
// without sharing the Apps slice.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Apps != nil {
		out.Apps = append([]string(nil), u.Apps...)
	}
	return &out
}

// Directory is the user storage contract consumed by the engine and the
// authentication strategies. Implementations must provide read-after-write
// consistency within a single instance.
type Directory interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id string) error
}

// ValidateEmail reports whether the address parses as a bare RFC 5322
// address. Display-name forms ("A <a@b.c>") are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email format")
	}
	if addr.Address != email {
		return errors.New("invalid email format")
	}
	return nil
}
