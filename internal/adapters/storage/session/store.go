// Package session persists console sessions so a restart does not sign
// operators out.
package session

import (
	"context"
	"errors"
	"time"

	domain "backoffice/internal/domain/session"
)

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// Record is one persisted session.
type Record struct {
	Token     string
	State     domain.State
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store defines session persistence.
type Store interface {
	// Create persists a new session.
	// PRE: rec.Token is non-empty and rec.ExpiresAt is after rec.CreatedAt
	// POST: Get(rec.Token) returns rec until it expires
	Create(ctx context.Context, rec Record) error

	// Get returns the live session for token.
	// POST: returns ErrNotFound when missing or expired at now
	Get(ctx context.Context, token string, now time.Time) (Record, error)

	// Delete removes a session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteForOperator removes every session belonging to email.
	DeleteForOperator(ctx context.Context, email string) (int64, error)

	// PurgeExpired removes sessions that expired before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
