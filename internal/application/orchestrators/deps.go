package orchestrators

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/session"
)

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, event audit.Event) error
}

// Request describes where an operator action came from.
type Request struct {
	IPAddress string
	UserAgent string
}

// recordAudit saves ev when a recorder is configured. Audit failures are
// logged and never fail the operator's action.
func recordAudit(ctx context.Context, rec AuditRecorder, log *zap.Logger, ev audit.Event) {
	if rec == nil {
		return
	}
	if err := rec.Save(ctx, ev); err != nil {
		log.Error("audit_save_failed", zap.String("action", string(ev.Action)), zap.Error(err))
	}
}

func newEvent(actor session.User, cat audit.Category, action audit.Action, req Request) audit.Event {
	return audit.NewEvent(actor.Email, string(actor.Role), cat, action).WithRequest(req.IPAddress, req.UserAgent)
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func orNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func orUUID(gen func() string) func() string {
	if gen == nil {
		return uuid.NewString
	}
	return gen
}
