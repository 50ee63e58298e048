package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"maps"
	"net/http"
	"net/url"
	"slices"

	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/application/form"
	"backoffice/internal/application/orchestrators"
	"backoffice/internal/application/projections"
	"backoffice/internal/domain/calendar"
	"backoffice/internal/domain/coupon"
	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
)

// newID is the path segment addressing the blank form of an entity.
const newID = "new"

// detailView is the detail page model.
type detailView struct {
	Entity   string         `json:"entity"`
	Title    string         `json:"title"`
	Singular string         `json:"singular"`
	Fields   []schema.Field `json:"-"`
	Form     form.State     `json:"form"`
	// Preview holds the rendered markdown of long text fields.
	Preview map[string]template.HTML `json:"preview,omitempty"`
	// Times lists the slots of an open calendar; the JSON mirror has them in form.values.
	Times []calendar.Slot `json:"-"`
	// Tabs is set for saved coupons.
	Tabs        *projections.CouponDetailResult `json:"tabs,omitempty"`
	TabsFailure string                          `json:"tabsFailure,omitempty"`
}

// Path returns the detail URL of the open record.
func (v detailView) Path() string {
	if v.Form.ID == "" {
		return "/" + v.Entity + "/" + newID
	}
	return "/" + v.Entity + "/" + url.PathEscape(string(v.Form.ID))
}

func pathID(r *http.Request) record.ID {
	id := r.PathValue("id")
	if id == newID {
		return ""
	}
	return record.ID(id)
}

// buildDetail builds the page model; coupon tabs are fetched for saved coupons.
func (s *Server) buildDetail(ctx context.Context, def record.Definition, st form.State) detailView {
	v := detailView{
		Entity:   def.Name,
		Title:    def.Title,
		Singular: def.Singular,
		Fields:   def.Schema.Fields,
		Form:     st,
		Preview:  map[string]template.HTML{},
	}
	for _, f := range def.Schema.Fields {
		if f.Kind != schema.KindLongText {
			continue
		}
		if text, ok := st.Values[f.Name].(string); ok && text != "" {
			v.Preview[f.Name] = renderMarkdown(text)
		}
	}
	if def.Name == calendar.Definition.Name {
		v.Times = calendar.SlotsOf(st.Values["times"])
	}
	if def.Name == coupon.Definition.Name && st.ID != "" && st.Mode == form.ModeEditing {
		tabs, err := projections.QueryGetCouponDetail(ctx, projections.GetCouponDetailQuery{ID: st.ID},
			projections.GetCouponDetailDeps{
				Coupons:  marketplace.Coupons{Client: s.client},
				Describe: marketplace.Describe,
			})
		if err != nil {
			v.TabsFailure = marketplace.Describe(err)
		} else {
			v.Tabs = &tabs
		}
	}
	return v
}

// handleDetail handles GET /{entity}/{id}; id "new" opens the blank form.
// POST: a failed load is shown on the page; an unknown record answers 404
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(currentSession(r).Token)
	c, def, err := ws.Form(r.Context(), r.PathValue("entity"), pathID(r))
	if c == nil {
		s.entityError(w, r, err)
		return
	}
	status := http.StatusOK
	if err != nil && marketplace.IsNotFound(err) {
		status = http.StatusNotFound
	}
	view := s.buildDetail(r.Context(), def, c.Snapshot())
	// the saved notice is shown once
	c.TakeSaved()
	s.respond(w, r, status, "detail.html", def.Title, view)
}

// formUpdate is the JSON body of POST /{entity}/{id}.
type formUpdate struct {
	Values map[string]any `json:"values"`
	Touch  []string       `json:"touch"`
	Submit bool           `json:"submit"`
}

// formUpdateFromPost converts an HTML form post into a formUpdate.
// The page posts every input, so only fields whose value differs from
// current count as changed; unchecked boxes arrive as false.
// POST: fields the operator did not edit stay untouched
func formUpdateFromPost(r *http.Request, def record.Definition, current map[string]any) (formUpdate, error) {
	if err := r.ParseForm(); err != nil {
		return formUpdate{}, err
	}
	up := formUpdate{Values: map[string]any{}, Submit: r.PostForm.Get("_action") != "change"}
	for _, f := range def.Schema.Fields {
		var value any
		switch {
		case f.Relation == schema.RelationFile:
			// set by the upload route
			continue
		case f.Relation == schema.RelationOne:
			if !r.PostForm.Has(f.Name) {
				continue
			}
			if id := r.PostForm.Get(f.Name); id != "" {
				value = map[string]any{"id": record.ID(id)}
			}
		case f.Relation == schema.RelationMany:
			refs := []any{}
			for _, id := range r.PostForm[f.Name] {
				if id != "" {
					refs = append(refs, map[string]any{"id": record.ID(id)})
				}
			}
			value = refs
		case f.Kind == schema.KindBool:
			value = f.Parse(r.PostForm.Get(f.Name))
		case r.PostForm.Has(f.Name):
			value = f.Parse(r.PostForm.Get(f.Name))
		default:
			continue
		}
		if !sameValue(f, current[f.Name], value) {
			up.Values[f.Name] = value
		}
	}
	return up, nil
}

// sameValue reports whether a posted value renders the same as the stored one.
func sameValue(f schema.Field, stored, posted any) bool {
	if f.Relation == schema.RelationOne || f.Relation == schema.RelationMany {
		return slices.Equal(relationIDs(stored), relationIDs(posted))
	}
	return fieldValue(map[string]any{f.Name: stored}, f) == fieldValue(map[string]any{f.Name: posted}, f)
}

// normalizeJSON turns decoder numbers into float64 so range rules apply.
func normalizeJSON(v any) any {
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalizeJSON(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalizeJSON(item)
		}
		return out
	}
	return v
}

// handleDetailPost handles POST /{entity}/{id}: field changes, then an optional submit.
// POST: an update naming a field outside the schema changes nothing;
// a created record redirects browsers to its own detail URL
func (s *Server) handleDetailPost(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	ws := s.workspaces.Get(sess.Token)
	c, def, err := ws.Form(r.Context(), r.PathValue("entity"), pathID(r))
	if c == nil {
		s.entityError(w, r, err)
		return
	}

	var up formUpdate
	if isJSONBody(r) {
		err = strictDecode(r, &up)
	} else {
		up, err = formUpdateFromPost(r, def, c.Snapshot().Values)
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	// reject the whole update before applying any of it
	for _, name := range slices.Concat(slices.Collect(maps.Keys(up.Values)), up.Touch) {
		if _, ok := def.Schema.Field(name); !ok {
			writeError(w, r, http.StatusBadRequest, "unknown field "+name)
			return
		}
	}
	for name, value := range up.Values {
		if err := c.Change(name, normalizeJSON(value)); err != nil {
			s.formError(w, r, def, c, err)
			return
		}
	}
	for _, name := range up.Touch {
		c.Touch(name)
	}
	if !up.Submit {
		s.respond(w, r, http.StatusOK, "detail.html", def.Title, s.buildDetail(r.Context(), def, c.Snapshot()))
		return
	}

	result, err := orchestrators.ExecuteSubmitForm(r.Context(), orchestrators.SubmitFormInput{
		Actor:   sess.User(),
		Entity:  def.Name,
		Form:    c,
		Request: requestInfo(r),
	}, orchestrators.SubmitFormDeps{
		AuditStore: s.stores.AuditStore,
		Logger:     s.logger,
	})
	if err != nil {
		s.formError(w, r, def, c, err)
		return
	}

	if isHTMLRequest(r) {
		http.Redirect(w, r, "/"+def.Name+"/"+url.PathEscape(string(result.ID)), http.StatusSeeOther)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	view := s.buildDetail(r.Context(), def, c.Snapshot())
	c.TakeSaved()
	writeJSON(w, status, view)
}

// formError renders the form with the status matching err.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, def record.Definition, c *form.Controller, err error) {
	var apiErr *marketplace.APIError
	var transport *marketplace.TransportError
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, form.ErrInvalid):
	case errors.Is(err, form.ErrNotEditable), errors.Is(err, form.ErrSubmitting):
		status = http.StatusConflict
	case errors.As(err, &apiErr):
		if apiErr.Status >= 500 {
			status = http.StatusBadGateway
		}
	case errors.As(err, &transport):
		status = http.StatusBadGateway
	default:
		s.internalError(w, r, err)
		return
	}
	s.respond(w, r, status, "detail.html", def.Title, s.buildDetail(r.Context(), def, c.Snapshot()))
}

type uploadResponse struct {
	Image record.Image `json:"image"`
	Form  form.State   `json:"form"`
}

// handleCouponThumbnail handles POST /coupon/{id}/thumbnail (multipart "file").
// An optional "field" value targets another image field of the coupon.
// POST: the field holds the uploaded reference and counts as touched
func (s *Server) handleCouponThumbnail(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	ws := s.workspaces.Get(sess.Token)
	c, def, err := ws.Form(r.Context(), coupon.Definition.Name, pathID(r))
	if c == nil {
		s.entityError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, orchestrators.MaxImageBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, orchestrators.ErrImageTooLarge.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	field := r.FormValue("field")
	if field == "" {
		field = "thumbnail"
	}
	if f, ok := def.Schema.Field(field); !ok || f.Kind != schema.KindImage {
		writeError(w, r, http.StatusBadRequest, "not an image field: "+field)
		return
	}

	img, err := orchestrators.ExecuteUploadImage(r.Context(), orchestrators.UploadImageInput{
		Actor:    sess.User(),
		Entity:   def.Name,
		Field:    field,
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
		Form:     c,
		Request:  requestInfo(r),
	}, orchestrators.UploadImageDeps{
		Uploader:   marketplace.Coupons{Client: s.client},
		AuditStore: s.stores.AuditStore,
		Logger:     s.logger,
	})
	switch {
	case err == nil:
	case errors.Is(err, orchestrators.ErrUnsupportedImage):
		writeError(w, r, http.StatusUnsupportedMediaType, err.Error())
		return
	case errors.Is(err, orchestrators.ErrImageTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
		return
	default:
		s.formError(w, r, def, c, err)
		return
	}

	if isHTMLRequest(r) {
		v := detailView{Entity: def.Name, Form: c.Snapshot()}
		http.Redirect(w, r, v.Path(), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Image: img, Form: c.Snapshot()})
}
