package orchestrators

import (
	"context"

	"go.uber.org/zap"

	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/session"
)

// SessionStoreForLogout defines the session store interface needed by Logout.
type SessionStoreForLogout interface {
	Delete(ctx context.Context, token string) error
}

// WorkspaceEvictor drops the controllers held for a session.
type WorkspaceEvictor interface {
	Evict(token string)
}

// LogoutInput carries input for the logout orchestrator.
type LogoutInput struct {
	Token   string
	State   session.State
	Request Request
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	SessionStore SessionStoreForLogout
	Workspaces   WorkspaceEvictor // optional
	AuditStore   AuditRecorder    // optional
	Logger       *zap.Logger
}

// ExecuteLogout ends a session.
// PRE: none (an anonymous or unknown token is a no-op)
// POST: the session row and its workspace are gone; the returned state is the
// LOGOUT reduction of the input state
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) (session.State, error) {
	log := orNop(deps.Logger)
	next := session.Reduce(input.State, session.Logout())
	if input.Token == "" {
		return next, nil
	}
	if deps.Workspaces != nil {
		deps.Workspaces.Evict(input.Token)
	}
	if err := deps.SessionStore.Delete(ctx, input.Token); err != nil {
		return next, err
	}
	if input.State.LoggedIn {
		log.Info("auth_event", zap.String("event", "logout"), zap.String("email", input.State.User.Email))
		recordAudit(ctx, deps.AuditStore, log,
			newEvent(input.State.User, audit.CategorySession, audit.ActionLogout, input.Request))
	}
	return next, nil
}
