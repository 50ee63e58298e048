package operator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/adapters/storage"
	domain "backoffice/internal/domain/operator"
	"backoffice/internal/domain/session"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectColumns = "SELECT email, password_hash, first_name, last_name, role, bio, avatar, failed_logins, locked_until FROM operator"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new operator store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByEmail retrieves an Operator by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Operator, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE email = ?", normalize(email))
	entity, err := scanOperator(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Operator{}, ErrNotFound
	}
	return entity, err
}

// Save persists an Operator (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted including its lockout counters
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Operator) error {
	fields := []string{"email", "password_hash", "first_name", "last_name", "role", "bio", "avatar", "failed_logins", "locked_until"}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	updates := make([]string, 0, len(fields)-1)
	for _, f := range fields[1:] {
		updates = append(updates, f+"=excluded."+f)
	}

	query := fmt.Sprintf(
		"INSERT INTO operator (%s) VALUES (%s) ON CONFLICT(email) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		placeholders,
		strings.Join(updates, ", "),
	)
	_, err := s.db.ExecContext(ctx, query,
		normalize(entity.Email),
		entity.PasswordHash,
		entity.FirstName,
		entity.LastName,
		string(entity.Role),
		entity.Bio,
		entity.Avatar,
		entity.FailedLogins,
		lockedUntil(entity.LockedUntil),
	)
	return err
}

// List returns every operator ordered by email.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Operator, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY email")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Operator
	for rows.Next() {
		entity, err := scanOperator(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Sync makes the table mirror the configured operators.
// PRE: every configured operator is valid
// POST: configured operators exist with their configured profile and hash;
// operators no longer configured are removed
// INVARIANT: lockout counters of operators that remain configured are kept
func (s *SQLiteStore) Sync(ctx context.Context, configured []domain.Operator) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	keep := make([]any, 0, len(configured))
	for _, o := range configured {
		email := normalize(o.Email)
		keep = append(keep, email)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO operator (email, password_hash, first_name, last_name, role, bio, avatar)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(email) DO UPDATE SET password_hash=excluded.password_hash,
			 first_name=excluded.first_name, last_name=excluded.last_name, role=excluded.role,
			 bio=excluded.bio, avatar=excluded.avatar`,
			email, o.PasswordHash, o.FirstName, o.LastName, string(o.Role), o.Bio, o.Avatar)
		if err != nil {
			return fmt.Errorf("sync operator %s: %w", email, err)
		}
	}

	del := "DELETE FROM operator"
	if len(keep) > 0 {
		del += " WHERE email NOT IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(keep)), ", ") + ")"
	}
	if _, err := tx.ExecContext(ctx, del, keep...); err != nil {
		return fmt.Errorf("prune operators: %w", err)
	}
	return tx.Commit()
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func lockedUntil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// scanOperator extracts an Operator from a row scanner function.
func scanOperator(scan func(dest ...any) error) (domain.Operator, error) {
	var entity domain.Operator
	var role string
	var locked sql.NullString
	err := scan(
		&entity.Email,
		&entity.PasswordHash,
		&entity.FirstName,
		&entity.LastName,
		&role,
		&entity.Bio,
		&entity.Avatar,
		&entity.FailedLogins,
		&locked,
	)
	if err != nil {
		return domain.Operator{}, err
	}
	entity.Role = session.Role(role)
	if locked.Valid && locked.String != "" {
		entity.LockedUntil, _ = time.Parse(timeLayout, locked.String)
	}
	return entity, nil
}
