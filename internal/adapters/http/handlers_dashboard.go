package web

import (
	"net/http"

	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/application/projections"
	"backoffice/internal/application/workspace"
)

// handleDashboard handles GET /
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		User:     sess.User(),
		Entities: workspace.Catalog(),
	}, projections.GetDashboardDeps{
		Counter:    s.client,
		AuditStore: s.stores.AuditStore,
		Describe:   marketplace.Describe,
		Logger:     s.logger,
	}, s.now())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, "dashboard.html", "Dashboard", result)
}
