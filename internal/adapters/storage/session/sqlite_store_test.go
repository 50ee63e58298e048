package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/adapters/storage"
	domain "backoffice/internal/domain/session"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.MigrateDB(db))
	return NewSQLiteStore(db)
}

func loggedIn(email string) domain.State {
	return domain.Reduce(domain.Guest(), domain.Login(domain.User{Email: email, FirstName: "Ana", Role: domain.RoleAdmin}))
}

// TestSQLiteStore_CreateGet verifies state survives a round trip until expiry.
func TestSQLiteStore_CreateGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, Record{
		Token:     "tok",
		State:     loggedIn("ana@example.com"),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	rec, err := store.Get(ctx, "tok", now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, rec.State.LoggedIn)
	assert.Equal(t, domain.RoleAdmin, rec.State.User.Role)
	assert.True(t, rec.ExpiresAt.Equal(now.Add(time.Hour)))

	_, err = store.Get(ctx, "tok", now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "other", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteStore_Purge verifies expired rows are removed and operator sessions revoked.
func TestSQLiteStore_Purge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, Record{Token: "old", State: domain.Guest(), CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.Create(ctx, Record{Token: "sub", State: domain.Guest(), CreatedAt: now, ExpiresAt: now.Add(time.Minute + 500*time.Millisecond)}))
	require.NoError(t, store.Create(ctx, Record{Token: "a1", State: loggedIn("Ana@example.com"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Create(ctx, Record{Token: "a2", State: loggedIn("ana@example.com"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	n, err := store.PurgeExpired(ctx, now.Add(time.Minute+time.Millisecond))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = store.Get(ctx, "sub", now)
	assert.NoError(t, err)

	n, err = store.DeleteForOperator(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, store.Delete(ctx, "sub"))
	require.NoError(t, store.Delete(ctx, "sub"))
}
