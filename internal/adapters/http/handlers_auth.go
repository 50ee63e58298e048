package web

import (
	"errors"
	"net/http"
	"time"

	"backoffice/internal/adapters/http/middleware"
	"backoffice/internal/application/orchestrators"
	"backoffice/internal/domain/session"
)

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginView struct {
	Email string `json:"email,omitempty"`
	Error string `json:"error,omitempty"`
}

type loginResponse struct {
	State     session.State `json:"state"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// handleLoginPage handles GET /login
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.respond(w, r, http.StatusOK, "login.html", "Sign in", loginView{})
}

// handleLogin handles POST /login
// PRE: body carries email and password (form or JSON)
// POST: on success a session cookie is set and browsers land on the dashboard
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginForm
	if isJSONBody(r) {
		if err := strictDecode(r, &in); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		in = loginForm{Email: r.FormValue("email"), Password: r.FormValue("password")}
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    in.Email,
		Password: in.Password,
		Request:  requestInfo(r),
	}, orchestrators.LoginDeps{
		OperatorStore: s.stores.OperatorStore,
		SessionStore:  s.stores.SessionStore,
		AuditStore:    s.stores.AuditStore,
		SessionTTL:    s.cfg.SessionTTL,
		Logger:        s.logger,
		Now:           s.now,
	})
	if err != nil {
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, orchestrators.ErrOperatorLocked):
			status = http.StatusTooManyRequests
		case !errors.Is(err, orchestrators.ErrInvalidCredentials):
			s.internalError(w, r, err)
			return
		}
		s.respond(w, r, status, "login.html", "Sign in", loginView{Email: in.Email, Error: err.Error()})
		return
	}

	middleware.SetSessionCookie(w, result.Token, result.ExpiresAt, s.cfg.Secure)
	if isHTMLRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{State: result.State, ExpiresAt: result.ExpiresAt})
}

// handleLogout handles POST /logout
// POST: the session row and the operator's workspace are gone
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	state, err := orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{
		Token:   sess.Token,
		State:   sess.State(),
		Request: requestInfo(r),
	}, orchestrators.LogoutDeps{
		SessionStore: s.stores.SessionStore,
		Workspaces:   s.workspaces,
		AuditStore:   s.stores.AuditStore,
		Logger:       s.logger,
	})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	sess.Store.Restore(state)

	middleware.ClearSessionCookie(w, s.cfg.Secure)
	if isHTMLRequest(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
