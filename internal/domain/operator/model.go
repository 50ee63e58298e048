// Package operator models the people allowed to sign in to the console.
package operator

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/domain/session"
)

// Max length constants for configured fields.
const (
	MaxEmailLength = 254
	MinPasswordLen = 12
)

// Lockout policy.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrInvalidRole      = errors.New("role must be one of: USER, ADMIN")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrLocked           = errors.New("operator is temporarily locked")
)

// Operator is a person allowed to sign in to the console.
type Operator struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         session.Role
	Bio          string
	Avatar       string
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the Operator has valid data.
// PRE: Operator struct is populated
// POST: Returns nil if valid, error otherwise
func (o *Operator) Validate() error {
	if strings.TrimSpace(o.Email) == "" {
		return ErrEmptyEmail
	}
	if len(o.Email) > MaxEmailLength {
		return errors.New("email cannot exceed 254 characters")
	}
	if !strings.Contains(o.Email, "@") {
		return ErrInvalidEmail
	}
	if o.Role != session.RoleUser && o.Role != session.RoleAdmin {
		return ErrInvalidRole
	}
	return nil
}

// HashPassword returns the bcrypt hash of plaintext.
// PRE: plaintext is >= 12 characters
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLen {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Operator fields are not mutated
func (o *Operator) CheckPassword(plaintext string) error {
	if o.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the operator is currently locked out.
// INVARIANT: Operator fields are not mutated
func (o *Operator) IsLocked(now time.Time) bool {
	return !o.LockedUntil.IsZero() && now.Before(o.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks after 5 failures.
// POST: FailedLogins incremented; LockedUntil set if >= 5 failures
func (o *Operator) RecordFailedLogin(now time.Time) {
	o.FailedLogins++
	if o.FailedLogins >= MaxFailedLogins {
		o.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
func (o *Operator) ResetFailedLogins() {
	o.FailedLogins = 0
	o.LockedUntil = time.Time{}
}

// Profile is the session user built from the operator.
func (o *Operator) Profile() session.User {
	return session.User{
		Email:     o.Email,
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Avatar:    o.Avatar,
		Bio:       o.Bio,
		Role:      o.Role,
	}
}
