package orchestrators

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	sessionStore "backoffice/internal/adapters/storage/session"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/operator"
	"backoffice/internal/domain/session"
)

// DefaultSessionTTL is how long a console session lasts without a configured TTL.
const DefaultSessionTTL = 24 * time.Hour

// OperatorStoreForLogin defines the store interface needed by Login.
type OperatorStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (operator.Operator, error)
	Save(ctx context.Context, o operator.Operator) error
}

// SessionStoreForLogin defines the session store interface needed by Login.
type SessionStoreForLogin interface {
	Create(ctx context.Context, rec sessionStore.Record) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
	Request  Request
}

// LoginResult carries the created session.
type LoginResult struct {
	Token     string
	State     session.State
	ExpiresAt time.Time
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	OperatorStore OperatorStoreForLogin
	SessionStore  SessionStoreForLogin
	AuditStore    AuditRecorder // optional
	SessionTTL    time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
	GenerateToken func() string
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOperatorLocked     = errors.New("operator is locked due to too many failed attempts")
)

// ExecuteLogin verifies credentials and opens a session.
// PRE: Valid email and password provided
// POST: On success a session exists whose state is the LOGIN reduction of the
// operator profile; on failure the failed-login counter is advanced
// INVARIANT: a locked operator never gets a session
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	log := orNop(deps.Logger)
	now := orNow(deps.Now)()
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	op, err := deps.OperatorStore.GetByEmail(ctx, email)
	if err != nil {
		log.Info("auth_event", zap.String("event", "login_failed"), zap.String("email", email), zap.String("reason", "not_found"))
		return LoginResult{}, ErrInvalidCredentials
	}

	if op.IsLocked(now) {
		log.Info("auth_event", zap.String("event", "login_blocked"), zap.String("email", email), zap.String("reason", "locked"))
		recordAudit(ctx, deps.AuditStore, log,
			newEvent(op.Profile(), audit.CategorySecurity, audit.ActionDenied, input.Request).
				WithSeverity(audit.SeverityWarning).
				WithDescription("login refused: operator locked"))
		return LoginResult{}, ErrOperatorLocked
	}

	if err := op.CheckPassword(input.Password); err != nil {
		op.RecordFailedLogin(now)
		if err := deps.OperatorStore.Save(ctx, op); err != nil {
			log.Error("operator_save_failed", zap.String("email", email), zap.Error(err))
		}
		log.Info("auth_event", zap.String("event", "login_failed"), zap.String("email", email),
			zap.String("reason", "wrong_password"), zap.Int("failed_logins", op.FailedLogins))
		if op.IsLocked(now) {
			recordAudit(ctx, deps.AuditStore, log,
				newEvent(op.Profile(), audit.CategorySecurity, audit.ActionDenied, input.Request).
					WithSeverity(audit.SeverityCritical).
					WithDescription("operator locked after repeated failed logins"))
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	if op.FailedLogins > 0 || !op.LockedUntil.IsZero() {
		op.ResetFailedLogins()
		if err := deps.OperatorStore.Save(ctx, op); err != nil {
			log.Error("operator_save_failed", zap.String("email", email), zap.Error(err))
		}
	}

	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	result := LoginResult{
		Token:     orUUID(deps.GenerateToken)(),
		State:     session.Reduce(session.Guest(), session.Login(op.Profile())),
		ExpiresAt: now.Add(ttl),
	}
	err = deps.SessionStore.Create(ctx, sessionStore.Record{
		Token:     result.Token,
		State:     result.State,
		CreatedAt: now,
		ExpiresAt: result.ExpiresAt,
	})
	if err != nil {
		return LoginResult{}, err
	}

	log.Info("auth_event", zap.String("event", "login_success"), zap.String("email", email), zap.String("role", string(op.Role)))
	recordAudit(ctx, deps.AuditStore, log,
		newEvent(result.State.User, audit.CategorySession, audit.ActionLogin, input.Request))
	return result, nil
}
