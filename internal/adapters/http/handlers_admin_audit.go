package web

import (
	"net/http"
	"strconv"
	"time"

	auditStore "backoffice/internal/adapters/storage/audit"
	auditDomain "backoffice/internal/domain/audit"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// auditFilterView echoes the active filters back to the page.
type auditFilterView struct {
	Category     string `json:"category,omitempty"`
	Action       string `json:"action,omitempty"`
	Actor        string `json:"actor,omitempty"`
	Severity     string `json:"severity,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	ResourceID   string `json:"resource_id,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
}

type auditTrailView struct {
	Events []auditDomain.Event `json:"events"`
	Filter auditFilterView     `json:"filter"`
	Limit  int                 `json:"limit"`
}

// parseAuditDate accepts a date (YYYY-MM-DD) or an RFC 3339 timestamp.
// A bare "to" date covers the whole day.
func parseAuditDate(s string, endOfDay bool) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

// handleAdminAuditTrail renders the admin audit trail page (GET /admin/audit)
// PRE: operator is authenticated as admin (RequireRole)
// POST: renders audit trail with optional filters
func (s *Server) handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fv := auditFilterView{
		Category:     q.Get("category"),
		Action:       q.Get("action"),
		Actor:        q.Get("actor"),
		Severity:     q.Get("severity"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		From:         q.Get("from"),
		To:           q.Get("to"),
	}

	filter := auditStore.Filter{}
	if fv.Category != "" {
		cat := auditDomain.Category(fv.Category)
		filter.Category = &cat
	}
	if fv.Action != "" {
		act := auditDomain.Action(fv.Action)
		filter.Action = &act
	}
	if fv.Actor != "" {
		filter.ActorEmail = &fv.Actor
	}
	if fv.Severity != "" {
		sev := auditDomain.Severity(fv.Severity)
		filter.Severity = &sev
	}
	if fv.ResourceType != "" {
		filter.ResourceType = &fv.ResourceType
	}
	if fv.ResourceID != "" {
		filter.ResourceID = &fv.ResourceID
	}
	var ok bool
	if filter.From, ok = parseAuditDate(fv.From, false); !ok {
		writeError(w, r, http.StatusBadRequest, "invalid from date")
		return
	}
	if filter.To, ok = parseAuditDate(fv.To, true); !ok {
		writeError(w, r, http.StatusBadRequest, "invalid to date")
		return
	}

	limit := defaultAuditLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= maxAuditLimit {
			limit = l
		}
	}

	events, err := s.stores.AuditStore.List(r.Context(), filter, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if events == nil {
		events = []auditDomain.Event{}
	}

	s.respond(w, r, http.StatusOK, "audit_trail.html", "Audit trail", auditTrailView{
		Events: events,
		Filter: fv,
		Limit:  limit,
	})
}
