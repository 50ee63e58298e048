package orchestrators

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	sessionStore "backoffice/internal/adapters/storage/session"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/operator"
	"backoffice/internal/domain/session"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedToken() string { return "token-001" }

// mockOperatorStore implements OperatorStoreForLogin for testing.
type mockOperatorStore struct {
	operators map[string]operator.Operator
}

// GetByEmail implements OperatorStoreForLogin.
// PRE: email is non-empty
// POST: returns the operator or an error
func (m *mockOperatorStore) GetByEmail(_ context.Context, email string) (operator.Operator, error) {
	o, ok := m.operators[email]
	if !ok {
		return operator.Operator{}, errors.New("not found")
	}
	return o, nil
}

// Save implements OperatorStoreForLogin.
// PRE: o is valid
// POST: o is stored
func (m *mockOperatorStore) Save(_ context.Context, o operator.Operator) error {
	m.operators[o.Email] = o
	return nil
}

// mockSessionStore implements the session store interfaces for testing.
type mockSessionStore struct {
	records map[string]sessionStore.Record
}

// Create implements SessionStoreForLogin.
// PRE: rec.Token is non-empty
// POST: rec is stored
func (m *mockSessionStore) Create(_ context.Context, rec sessionStore.Record) error {
	m.records[rec.Token] = rec
	return nil
}

// Delete implements SessionStoreForLogout.
// PRE: none
// POST: token is gone
func (m *mockSessionStore) Delete(_ context.Context, token string) error {
	delete(m.records, token)
	return nil
}

// mockAudit implements AuditRecorder for testing.
type mockAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

// Save implements AuditRecorder.
// PRE: event is valid
// POST: event is appended
func (m *mockAudit) Save(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockAudit) actions() []audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Action, len(m.events))
	for i, e := range m.events {
		out[i] = e.Action
	}
	return out
}

// testPassword is hashed at minimum cost to keep the tests fast.
const testPassword = "correct horse battery"

func newLoginFixture(t *testing.T) (*mockOperatorStore, *mockSessionStore, *mockAudit, LoginDeps) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ops := &mockOperatorStore{operators: map[string]operator.Operator{
		"ana@example.com": {Email: "ana@example.com", PasswordHash: string(hash), FirstName: "Ana", Role: session.RoleAdmin},
	}}
	sessions := &mockSessionStore{records: map[string]sessionStore.Record{}}
	rec := &mockAudit{}
	deps := LoginDeps{
		OperatorStore: ops,
		SessionStore:  sessions,
		AuditStore:    rec,
		SessionTTL:    time.Hour,
		Now:           fixedNow,
		GenerateToken: fixedToken,
	}
	return ops, sessions, rec, deps
}

// TestExecuteLogin_Success verifies a session is created with the LOGIN state.
func TestExecuteLogin_Success(t *testing.T) {
	_, sessions, rec, deps := newLoginFixture(t)

	res, err := ExecuteLogin(context.Background(), LoginInput{Email: " Ana@Example.com ", Password: testPassword}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "token-001" {
		t.Errorf("token = %q", res.Token)
	}
	if !res.State.LoggedIn || res.State.User.Role != session.RoleAdmin || res.State.User.FirstName != "Ana" {
		t.Errorf("state = %+v", res.State)
	}
	if !res.ExpiresAt.Equal(fixedTime.Add(time.Hour)) {
		t.Errorf("expires = %v", res.ExpiresAt)
	}
	if _, ok := sessions.records["token-001"]; !ok {
		t.Error("session was not persisted")
	}
	if got := rec.actions(); len(got) != 1 || got[0] != audit.ActionLogin {
		t.Errorf("audit actions = %v", got)
	}
}

// TestExecuteLogin_WrongPasswordLocks verifies the lockout after repeated failures.
func TestExecuteLogin_WrongPasswordLocks(t *testing.T) {
	ops, sessions, rec, deps := newLoginFixture(t)
	input := LoginInput{Email: "ana@example.com", Password: "wrong password!"}

	for i := 0; i < operator.MaxFailedLogins; i++ {
		if _, err := ExecuteLogin(context.Background(), input, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
	if got := ops.operators["ana@example.com"].FailedLogins; got != operator.MaxFailedLogins {
		t.Errorf("failed logins = %d", got)
	}

	input.Password = testPassword
	if _, err := ExecuteLogin(context.Background(), input, deps); !errors.Is(err, ErrOperatorLocked) {
		t.Fatalf("err = %v, want ErrOperatorLocked", err)
	}
	if len(sessions.records) != 0 {
		t.Error("locked operator must not get a session")
	}
	if got := rec.actions(); len(got) != 2 || got[0] != audit.ActionDenied || got[1] != audit.ActionDenied {
		t.Errorf("audit actions = %v", got)
	}

	deps.Now = func() time.Time { return fixedTime.Add(operator.LockoutDuration + time.Second) }
	if _, err := ExecuteLogin(context.Background(), input, deps); err != nil {
		t.Fatalf("login after lockout: %v", err)
	}
	if got := ops.operators["ana@example.com"].FailedLogins; got != 0 {
		t.Errorf("failed logins not reset: %d", got)
	}
}

// TestExecuteLogin_Invalid verifies empty and unknown credentials.
func TestExecuteLogin_Invalid(t *testing.T) {
	_, _, _, deps := newLoginFixture(t)
	for _, in := range []LoginInput{
		{},
		{Email: "ana@example.com"},
		{Email: "nobody@example.com", Password: testPassword},
	} {
		if _, err := ExecuteLogin(context.Background(), in, deps); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("input %+v: err = %v", in, err)
		}
	}
}

type mockEvictor struct{ evicted []string }

// Evict implements WorkspaceEvictor.
// PRE: none
// POST: token recorded
func (m *mockEvictor) Evict(token string) { m.evicted = append(m.evicted, token) }

// TestExecuteLogout verifies the session, workspace and state are all reset.
func TestExecuteLogout(t *testing.T) {
	sessions := &mockSessionStore{records: map[string]sessionStore.Record{"tok": {Token: "tok"}}}
	ev := &mockEvictor{}
	rec := &mockAudit{}
	state := session.Reduce(session.Guest(), session.Login(session.User{Email: "ana@example.com", Role: session.RoleAdmin}))

	next, err := ExecuteLogout(context.Background(), LogoutInput{Token: "tok", State: state},
		LogoutDeps{SessionStore: sessions, Workspaces: ev, AuditStore: rec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.LoggedIn || next.User.Role != session.RoleGuest || next.User.Email != "" {
		t.Errorf("state = %+v", next)
	}
	if len(sessions.records) != 0 || len(ev.evicted) != 1 {
		t.Error("session or workspace not removed")
	}
	if got := rec.actions(); len(got) != 1 || got[0] != audit.ActionLogout {
		t.Errorf("audit actions = %v", got)
	}

	if _, err := ExecuteLogout(context.Background(), LogoutInput{}, LogoutDeps{SessionStore: sessions}); err != nil {
		t.Errorf("anonymous logout: %v", err)
	}
}
