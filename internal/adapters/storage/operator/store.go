package operator

import (
	"context"
	"errors"

	domain "backoffice/internal/domain/operator"
)

// ErrNotFound is returned when no operator has the requested email.
var ErrNotFound = errors.New("operator not found")

// Store persists Operator state.
type Store interface {
	GetByEmail(ctx context.Context, email string) (domain.Operator, error)
	Save(ctx context.Context, value domain.Operator) error
	List(ctx context.Context) ([]domain.Operator, error)
	Sync(ctx context.Context, configured []domain.Operator) error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
