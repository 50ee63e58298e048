package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/application/listutil"
	"backoffice/internal/application/listview"
	"backoffice/internal/application/search"
	"backoffice/internal/domain/record"
)

// listView is the list page model.
type listView struct {
	Entity     string          `json:"entity"`
	Title      string          `json:"title"`
	Columns    []record.Column `json:"columns"`
	Searchable bool            `json:"searchable"`
	ReadOnly   bool            `json:"readOnly"`
	Query      string          `json:"q,omitempty"`
	Table      listview.Page   `json:"table"`
}

// QueryString encodes the list URL for a display page, keeping sort, size and filter.
func (v listView) QueryString(page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(v.Table.Size))
	if v.Table.Sort.Field != "" {
		q.Set("sort", v.Table.Sort.Field)
		q.Set("dir", string(v.Table.Sort.Dir))
	}
	if v.Query != "" {
		q.Set("q", v.Query)
	}
	return q.Encode()
}

// SortIndicator returns the arrow for the active sort column.
func (v listView) SortIndicator(field string) string {
	if v.Table.Sort.Field != field {
		return ""
	}
	if v.Table.Sort.Dir == listutil.Desc {
		return "▼"
	}
	return "▲"
}

func newListView(def record.Definition, page listview.Page) listView {
	v := listView{
		Entity:     def.Name,
		Title:      def.Title,
		Columns:    def.Columns,
		Searchable: def.SearchParam != "",
		ReadOnly:   def.ReadOnly,
		Table:      page,
	}
	if def.SearchParam != "" {
		v.Query = page.Filters[def.SearchParam]
	}
	return v
}

// parseNavigation reads page, size, sort, dir and q from a list URL.
// PRE: none
// POST: absent or malformed numbers are left zero (keep current)
func parseNavigation(q url.Values, def record.Definition) listview.Navigation {
	var nav listview.Navigation
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		nav.Page = n
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil {
		nav.Size = n
	}
	if sort, ok := listutil.ParseSortParams(q); ok {
		nav.Sort = &sort
	}
	if def.SearchParam != "" && q.Has("q") {
		nav.Filters = map[string]string{def.SearchParam: strings.TrimSpace(q.Get("q"))}
	}
	return nav
}

// listRequestError reports whether err is a rejected list operation and writes 400 for it.
func listRequestError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, listview.ErrNotSortable),
		errors.Is(err, listview.ErrInvalidPageSize),
		errors.Is(err, listview.ErrInvalidPage):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return true
	}
	return false
}

// handleList handles GET /{entity}
// POST: the table has been fetched with the URL's page, size, sort and filter;
// a failed fetch is shown on the page, never as a server error
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(currentSession(r).Token)
	table, def, err := ws.Table(r.PathValue("entity"))
	if err != nil {
		s.entityError(w, r, err)
		return
	}
	if err := table.Navigate(r.Context(), parseNavigation(r.URL.Query(), def)); listRequestError(w, r, err) {
		return
	}
	s.respond(w, r, http.StatusOK, "list.html", def.Title, newListView(def, table.Render()))
}

// actionValue reads one value from a small JSON object or form body.
func actionValue(r *http.Request, key string) (string, error) {
	if isJSONBody(r) {
		var body map[string]string
		if err := strictDecode(r, &body); err != nil {
			return "", err
		}
		return body[key], nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.FormValue(key), nil
}

// handleSort handles POST /{entity}/sort
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	field, err := actionValue(r, "field")
	if err != nil || field == "" {
		writeError(w, r, http.StatusBadRequest, "field is required")
		return
	}
	ws := s.workspaces.Get(currentSession(r).Token)
	table, def, err := ws.Table(r.PathValue("entity"))
	if err != nil {
		s.entityError(w, r, err)
		return
	}
	if err := table.SortBy(r.Context(), field); listRequestError(w, r, err) {
		return
	}
	s.respond(w, r, http.StatusOK, "list.html", def.Title, newListView(def, table.Render()))
}

// handleSelect handles POST /{entity}/select
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, err := actionValue(r, "id")
	if err != nil || id == "" {
		writeError(w, r, http.StatusBadRequest, "id is required")
		return
	}
	ws := s.workspaces.Get(currentSession(r).Token)
	table, def, err := ws.Table(r.PathValue("entity"))
	if err != nil {
		s.entityError(w, r, err)
		return
	}
	table.Toggle(record.ID(id))
	s.respond(w, r, http.StatusOK, "list.html", def.Title, newListView(def, table.Render()))
}

// handleSelectAll handles POST /{entity}/select-all
// POST: every rendered row is selected, or none when all already were
func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(currentSession(r).Token)
	table, def, err := ws.Table(r.PathValue("entity"))
	if err != nil {
		s.entityError(w, r, err)
		return
	}
	table.ToggleAll()
	s.respond(w, r, http.StatusOK, "list.html", def.Title, newListView(def, table.Render()))
}

type searchResponse struct {
	Options    []record.Option `json:"options"`
	Superseded bool            `json:"superseded,omitempty"`
	Failure    string          `json:"failure,omitempty"`
}

// handleSearch handles GET /api/search/{entity}?q=
// Each keystroke may call this; only the latest call of a burst reaches upstream.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(currentSession(r).Token)
	opts, err := ws.Search(r.Context(), r.PathValue("entity"), r.URL.Query().Get("q"))
	switch {
	case err == nil:
		if opts == nil {
			opts = []record.Option{}
		}
		writeJSON(w, http.StatusOK, searchResponse{Options: opts})
	case errors.Is(err, search.ErrSuperseded):
		writeJSON(w, http.StatusConflict, searchResponse{Options: []record.Option{}, Superseded: true})
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// client went away
	default:
		var apiErr *marketplace.APIError
		var transport *marketplace.TransportError
		if errors.As(err, &apiErr) || errors.As(err, &transport) {
			writeJSON(w, http.StatusBadGateway, searchResponse{Options: []record.Option{}, Failure: marketplace.Describe(err)})
			return
		}
		s.entityError(w, r, err)
	}
}
