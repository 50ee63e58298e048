package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"backoffice/internal/adapters/http/middleware"
	"backoffice/internal/application/orchestrators"
	"backoffice/internal/application/workspace"
	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
	"backoffice/internal/domain/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts operator-entered markdown to HTML.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// pageNames are the templates rendered inside layout.html.
var pageNames = []string{"login.html", "dashboard.html", "list.html", "detail.html", "audit_trail.html"}

type pageSet struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"renderMarkdown": func(v any) template.HTML {
		s, _ := v.(string)
		return renderMarkdown(s)
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"cell": func(c record.Cells, field string) string { return c[field] },
	"fieldValue": fieldValue,
	"imageURI": func(v any) string {
		m, _ := v.(map[string]any)
		uri, _ := m["uri"].(string)
		return uri
	},
	"relationIDs": relationIDs,
	"list":        func(items ...string) []string { return items },
	"formatTime": func(t interface{ Format(string) string }) string {
		return t.Format("02/01/2006 15:04:05")
	},
}

func parsePages() (*pageSet, error) {
	ps := &pageSet{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		ps.pages[name] = tpl
	}
	return ps, nil
}

// pageData wraps every page with the navigation bar state.
type pageData struct {
	Title     string
	User      session.User
	LoggedIn  bool
	IsAdmin   bool
	CSRFField template.HTML
	Nav       []record.Definition
	Data      any
}

func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName, title string, data any) {
	tpl, ok := s.pages.pages[templateName]
	if !ok {
		s.internalError(w, r, fmt.Errorf("unknown template %s", templateName))
		return
	}
	pd := pageData{
		Title:     title,
		CSRFField: csrf.TemplateField(r),
		Nav:       workspace.Catalog(),
		Data:      data,
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		st := sess.State()
		pd.User, pd.LoggedIn, pd.IsAdmin = st.User, st.LoggedIn, st.IsAdmin()
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, pd); err != nil {
		s.internalError(w, r, fmt.Errorf("render %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// respond writes HTML for browsers and JSON otherwise.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, templateName, title string, data any) {
	if isHTMLRequest(r) {
		s.renderTemplate(w, r, status, templateName, title, data)
		return
	}
	writeJSON(w, status, data)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a client error as JSON or plain text.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if isHTMLRequest(r) {
		http.Error(w, msg, status)
		return
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal_error",
		zap.String("request_id", middleware.RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	return dec.Decode(v)
}

// requestInfo extracts the audit request metadata.
func requestInfo(r *http.Request) orchestrators.Request {
	return orchestrators.Request{IPAddress: middleware.ClientIP(r), UserAgent: r.UserAgent()}
}

// currentSession returns the session RequireAuth guaranteed.
func currentSession(r *http.Request) middleware.Session {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess
}

// entityError maps workspace lookup errors to HTTP statuses.
func (s *Server) entityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workspace.ErrUnknownEntity):
		writeError(w, r, http.StatusNotFound, "unknown entity")
	case errors.Is(err, workspace.ErrNotSearchable):
		writeError(w, r, http.StatusBadRequest, "entity has no search")
	default:
		s.internalError(w, r, err)
	}
}

// fieldValue renders a form value for an input element.
func fieldValue(values map[string]any, f schema.Field) string {
	v := values[f.Name]
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return ""
	case float64, json.Number:
		return fmt.Sprint(x)
	case map[string]any:
		if f.Relation == schema.RelationFile {
			key, _ := x["key"].(string)
			return key
		}
		return string(record.IDOf(x["id"]))
	}
	return fmt.Sprint(v)
}

// relationIDs lists the ids a relation value references.
func relationIDs(v any) []record.ID {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		ids := make([]record.ID, 0, len(x))
		for _, item := range x {
			if id := record.IDOf(item); id != "" {
				ids = append(ids, id)
			}
		}
		return ids
	}
	if id := record.IDOf(v); id != "" {
		return []record.ID{id}
	}
	return nil
}
