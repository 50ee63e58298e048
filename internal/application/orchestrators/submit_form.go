package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"go.uber.org/zap"

	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/application/form"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/record"
	"backoffice/internal/domain/session"
)

// FormSubmitter is the part of a form controller Submit drives.
type FormSubmitter interface {
	ID() record.ID
	Snapshot() form.State
	Submit(ctx context.Context) (map[string]any, error)
}

// SubmitFormInput carries input for the submit orchestrator.
type SubmitFormInput struct {
	Actor   session.User
	Entity  string
	Form    FormSubmitter
	Request Request
}

// SubmitFormResult reports what was saved.
type SubmitFormResult struct {
	ID      record.ID
	Created bool
	Doc     map[string]any
}

// SubmitFormDeps holds dependencies for SubmitForm.
type SubmitFormDeps struct {
	AuditStore AuditRecorder // optional
	Logger     *zap.Logger
}

// ExecuteSubmitForm saves an open form on behalf of actor and audits the change.
// PRE: input.Form is loaded
// POST: on success an audit event names the entity and the saved id;
// form.ErrInvalid is returned without any backend call while validation fails
func ExecuteSubmitForm(ctx context.Context, input SubmitFormInput, deps SubmitFormDeps) (SubmitFormResult, error) {
	log := orNop(deps.Logger)
	before := input.Form.Snapshot()
	created := before.IsNew

	doc, err := input.Form.Submit(marketplace.WithActor(ctx, input.Actor.Email))
	if err != nil {
		if !errors.Is(err, form.ErrInvalid) {
			log.Info("record_save_failed", zap.String("entity", input.Entity),
				zap.String("id", string(before.ID)), zap.String("actor", input.Actor.Email), zap.Error(err))
		}
		return SubmitFormResult{}, err
	}

	id := input.Form.ID()
	action, verb := audit.ActionUpdate, "updated"
	if created {
		action, verb = audit.ActionCreate, "created"
	}
	ev := newEvent(input.Actor, audit.CategoryRecord, action, input.Request).
		WithResource(input.Entity, string(id)).
		WithDescription(verb + " " + input.Entity + " " + string(id)).
		WithMetadata(touchedFields(before))
	recordAudit(ctx, deps.AuditStore, log, ev)
	log.Info("record_saved", zap.String("entity", input.Entity), zap.String("id", string(id)),
		zap.Bool("created", created), zap.String("actor", input.Actor.Email))

	return SubmitFormResult{ID: id, Created: created, Doc: doc}, nil
}

// touchedFields encodes the names of edited fields as audit metadata.
func touchedFields(s form.State) string {
	fields := make([]string, 0, len(s.Touched))
	for name, touched := range s.Touched {
		if touched {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	raw, err := json.Marshal(map[string][]string{"fields": fields})
	if err != nil {
		return ""
	}
	return string(raw)
}
