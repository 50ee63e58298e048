package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/adapters/storage"
	domain "backoffice/internal/domain/session"
)

// timeLayout is fixed width so lexical comparison in SQL matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create persists a new session.
// PRE: rec.Token is non-empty
// POST: session row inserted
func (s *SQLiteStore) Create(ctx context.Context, rec Record) error {
	if rec.Token == "" {
		return errors.New("session token is required")
	}
	state, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session (token, state, created_at, expires_at, operator_email) VALUES (?, ?, ?, ?, ?)`,
		rec.Token, string(state), format(rec.CreatedAt), format(rec.ExpiresAt), operatorEmail(rec.State))
	return err
}

// Get returns the live session for token.
// PRE: none
// POST: returns ErrNotFound for unknown or expired tokens
func (s *SQLiteStore) Get(ctx context.Context, token string, now time.Time) (Record, error) {
	var rec Record
	var state, created, expires string
	err := s.db.QueryRowContext(ctx,
		`SELECT token, state, created_at, expires_at FROM session WHERE token = ?`, token).
		Scan(&rec.Token, &state, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	rec.ExpiresAt, _ = time.Parse(timeLayout, expires)
	if !now.Before(rec.ExpiresAt) {
		return Record{}, ErrNotFound
	}
	if err := json.Unmarshal([]byte(state), &rec.State); err != nil {
		return Record{}, fmt.Errorf("decode session state: %w", err)
	}
	return rec, nil
}

// Delete removes a session.
func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE token = ?`, token)
	return err
}

// DeleteForOperator removes every session belonging to email.
func (s *SQLiteStore) DeleteForOperator(ctx context.Context, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE operator_email = ?`, strings.ToLower(email))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpired removes sessions that expired at or before now.
// POST: returns the number of rows removed
func (s *SQLiteStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE expires_at <= ?`, format(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// format stores times in UTC.
func format(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func operatorEmail(st domain.State) string {
	return strings.ToLower(st.User.Email)
}
