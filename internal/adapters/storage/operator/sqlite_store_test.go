package operator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/adapters/storage"
	domain "backoffice/internal/domain/operator"
	"backoffice/internal/domain/session"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.MigrateDB(db))
	return NewSQLiteStore(db)
}

// TestSQLiteStore_SaveAndGet verifies round trip with lockout state and email normalization.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	locked := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := store.Save(ctx, domain.Operator{
		Email:        "Ana@Example.com",
		PasswordHash: "hash",
		FirstName:    "Ana",
		Role:         session.RoleAdmin,
		FailedLogins: 5,
		LockedUntil:  locked,
	})
	require.NoError(t, err)

	got, err := store.GetByEmail(ctx, " ana@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, session.RoleAdmin, got.Role)
	assert.Equal(t, 5, got.FailedLogins)
	assert.True(t, got.LockedUntil.Equal(locked))

	got.ResetFailedLogins()
	require.NoError(t, store.Save(ctx, got))
	got, err = store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Zero(t, got.FailedLogins)
	assert.True(t, got.LockedUntil.IsZero())
}

// TestSQLiteStore_GetMissing verifies the not found sentinel.
func TestSQLiteStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteStore_Sync verifies configured operators are upserted, stale ones pruned
// and lockout counters preserved.
func TestSQLiteStore_Sync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Sync(ctx, []domain.Operator{
		{Email: "a@example.com", PasswordHash: "h1", Role: session.RoleUser},
		{Email: "b@example.com", PasswordHash: "h2", Role: session.RoleAdmin},
	}))
	a, err := store.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	a.RecordFailedLogin(time.Now())
	require.NoError(t, store.Save(ctx, a))

	require.NoError(t, store.Sync(ctx, []domain.Operator{
		{Email: "a@example.com", PasswordHash: "h1-new", FirstName: "Ana", Role: session.RoleAdmin},
	}))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "h1-new", all[0].PasswordHash)
	assert.Equal(t, "Ana", all[0].FirstName)
	assert.Equal(t, session.RoleAdmin, all[0].Role)
	assert.Equal(t, 1, all[0].FailedLogins)

	require.NoError(t, store.Sync(ctx, nil))
	all, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
