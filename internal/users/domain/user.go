package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyEmail   = errors.New("user must have an email address")
	ErrInvalidEmail = errors.New("invalid email format")
)

// User is an account in the system. PasswordHash holds the one-way derived
// credential; the plaintext password is never stored.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	CreatedAt    time.Time
}

// NewUser creates a regular user. The email is normalized at creation time:
// the domain part is lower-cased, the local part is preserved as given.
// Normalization never runs again after creation.
func NewUser(email, name string) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	return &User{
		Email:     normalized,
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now(),
	}, nil
}

// NewSuperuser creates a user with staff and superuser flags set.
func NewSuperuser(email, name string) (*User, error) {
	user, err := NewUser(email, name)
	if err != nil {
		return nil, err
	}
	user.IsStaff = true
	user.IsSuperuser = true
	return user, nil
}

// NormalizeEmail lower-cases the domain part of the address, leaving the
// local part untouched.
func NormalizeEmail(email string) (string, error) {
	if email == "" {
		return "", ErrEmptyEmail
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", ErrInvalidEmail
	}

	local, domain := email[:at], email[at+1:]
	return local + "@" + strings.ToLower(domain), nil
}
