// Package form implements the generic detail/edit controller: it loads an
// entity (or a blank template), tracks edits and touched fields, validates
// against the entity schema and submits the collapsed payload.
package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"

	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
)

// Mode is the form's lifecycle state.
type Mode string

const (
	ModeLoading Mode = "loading"
	ModeEditing Mode = "editing"
	ModeFailed  Mode = "failed"
)

var (
	// ErrInvalid is returned by Submit while client-side validation fails.
	ErrInvalid = errors.New("form has validation errors")
	// ErrNotEditable is returned when the form is loading, failed or read-only.
	ErrNotEditable = errors.New("form is not editable")
	// ErrSubmitting is returned when a submit is already in flight.
	ErrSubmitting = errors.New("form is already being submitted")
	// ErrStale is returned to a load overtaken by a newer one.
	ErrStale = errors.New("form load superseded")
	// ErrUnknownField is returned for changes to fields outside the schema.
	ErrUnknownField = errors.New("unknown field")
)

// Backend fetches and saves raw entity documents.
type Backend interface {
	Fetch(ctx context.Context, resource string, id record.ID) (map[string]any, error)
	// Save creates the entity when id is empty and updates it otherwise.
	Save(ctx context.Context, resource string, id record.ID, payload map[string]any) (map[string]any, error)
}

// FieldErrorer is implemented by backend errors that carry per-field messages.
type FieldErrorer interface {
	FieldErrors() map[string][]string
}

// Definition is what the controller needs to know about an entity.
type Definition struct {
	Name     string
	Resource string
	Schema   schema.Schema
	Blank    func() map[string]any
	ReadOnly bool
}

// FromRecord derives a form Definition from an entity definition.
func FromRecord(d record.Definition) Definition {
	return Definition{Name: d.Name, Resource: d.Resource, Schema: d.Schema, Blank: d.Blank, ReadOnly: d.ReadOnly}
}

// Options configures a Controller.
type Options struct {
	// Describe turns a backend error into the operator-facing alert.
	Describe func(error) string
	Logger   *zap.Logger
}

// Controller holds one open detail form.
// INVARIANT: touched only controls which errors are displayed; submit is
// blocked by any validation error, touched or not
// INVARIANT: mu is never held across backend calls
type Controller struct {
	def      Definition
	backend  Backend
	describe func(error) string
	log      *zap.Logger

	mu         sync.Mutex
	id         record.ID
	values     map[string]any
	touched    map[string]bool
	errs       schema.Errors
	serverErrs map[string][]string
	mode       Mode
	failure    string
	saved      bool
	submitting bool
	seq        uint64
	cancel     context.CancelFunc
}

// New creates a controller for def. It starts in ModeLoading until Load.
func New(def Definition, backend Backend, opts Options) *Controller {
	if opts.Describe == nil {
		opts.Describe = func(err error) string { return err.Error() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if def.Blank == nil {
		def.Blank = func() map[string]any { return map[string]any{} }
	}
	return &Controller{
		def:      def,
		backend:  backend,
		describe: opts.Describe,
		log:      opts.Logger,
		mode:     ModeLoading,
		values:   map[string]any{},
		touched:  map[string]bool{},
		errs:     schema.Errors{},
	}
}

// Load opens the form. An empty id opens the blank template; otherwise the
// entity is fetched and its document replaces the values wholesale.
// POST: ModeEditing on success; ModeFailed with Failure set on fetch error
func (c *Controller) Load(ctx context.Context, id record.ID) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.saved = false
	c.failure = ""
	c.serverErrs = nil
	if id == "" {
		c.reset("", c.def.Blank())
		c.mu.Unlock()
		return nil
	}
	c.mode = ModeLoading
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	doc, err := c.backend.Fetch(fetchCtx, c.def.Resource, id)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrStale
	}
	c.cancel = nil
	if err != nil {
		c.mode = ModeFailed
		c.failure = c.describe(err)
		c.log.Warn("form_load_failed", zap.String("entity", c.def.Name), zap.String("id", string(id)), zap.Error(err))
		return err
	}
	if got := record.IDOf(doc["id"]); got != "" {
		id = got
	}
	c.reset(id, doc)
	return nil
}

// reset replaces the document and clears edit tracking. Caller holds mu.
func (c *Controller) reset(id record.ID, doc map[string]any) {
	if doc == nil {
		doc = map[string]any{}
	}
	c.id = id
	c.values = doc
	c.touched = map[string]bool{}
	c.mode = ModeEditing
	c.errs = c.def.Schema.Validate(c.values)
}

// Change merges one field value, marks it touched and re-validates.
// PRE: the form is editable
// POST: Errors reflect the full schema against the new values
func (c *Controller) Change(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.values[name] = value
	c.touched[name] = true
	delete(c.serverErrs, name)
	c.errs = c.def.Schema.Validate(c.values)
	return nil
}

// ChangeRaw parses raw form input according to the field kind, then applies Change.
func (c *Controller) ChangeRaw(name, raw string) error {
	f, ok := c.def.Schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return c.Change(name, f.Parse(raw))
}

// SetImage stores an uploaded image reference in an image field.
func (c *Controller) SetImage(name string, img record.Image) error {
	return c.Change(name, map[string]any{"key": img.Key, "uri": img.URI})
}

// Touch marks a field as touched (blur) without changing its value.
func (c *Controller) Touch(name string) {
	c.mu.Lock()
	c.touched[name] = true
	c.mu.Unlock()
}

func (c *Controller) editable() error {
	if c.mode != ModeEditing || c.def.ReadOnly {
		return ErrNotEditable
	}
	return nil
}

// Submit saves the form. It never reaches the backend while any field is
// invalid. Relation fields are reduced to id-only references.
// POST: on success the values are replaced by the server's document and the
// Saved notice is raised; on failure the values are kept and Failure is set
func (c *Controller) Submit(ctx context.Context) (map[string]any, error) {
	c.mu.Lock()
	if err := c.editable(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	c.errs = c.def.Schema.Validate(c.values)
	if len(c.errs) > 0 {
		c.mu.Unlock()
		return nil, ErrInvalid
	}
	id := c.id
	payload := c.def.Schema.Collapse(c.values)
	c.submitting = true
	c.saved = false
	c.mu.Unlock()

	doc, err := c.backend.Save(ctx, c.def.Resource, id, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		c.failure = c.describe(err)
		var fe FieldErrorer
		if errors.As(err, &fe) {
			c.serverErrs = fe.FieldErrors()
		}
		c.log.Warn("form_submit_failed", zap.String("entity", c.def.Name), zap.String("id", string(id)), zap.Error(err))
		return nil, err
	}
	newID := record.IDOf(doc["id"])
	if newID == "" {
		newID = id
	}
	c.reset(newID, doc)
	c.failure = ""
	c.serverErrs = nil
	c.saved = true
	return maps.Clone(doc), nil
}

// VisibleError returns the message to display next to a field: a server
// reported error, or the first validation message once the field is touched.
func (c *Controller) VisibleError(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleError(name)
}

func (c *Controller) visibleError(name string) string {
	if msgs := c.serverErrs[name]; len(msgs) > 0 {
		return msgs[0]
	}
	if !c.touched[name] {
		return ""
	}
	if msgs := c.errs[name]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// CanSubmit reports whether the submit action is enabled.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmit()
}

func (c *Controller) canSubmit() bool {
	return c.editable() == nil && !c.submitting && len(c.errs) == 0
}

// TakeSaved reports whether a save succeeded since the last call, and clears the notice.
func (c *Controller) TakeSaved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	saved := c.saved
	c.saved = false
	return saved
}

// ID returns the entity id, empty for a new entity.
func (c *Controller) ID() record.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Snapshot returns a copy of the form state for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := make(map[string]string)
	remaining := make(map[string]int)
	for _, f := range c.def.Schema.Fields {
		if msg := c.visibleError(f.Name); msg != "" {
			visible[f.Name] = msg
		}
		if n := f.Remaining(c.values[f.Name]); n >= 0 {
			remaining[f.Name] = n
		}
	}
	errs := make(schema.Errors, len(c.errs))
	for k, v := range c.errs {
		errs[k] = append([]string(nil), v...)
	}
	return State{
		ID:        c.id,
		IsNew:     c.id == "",
		Mode:      c.mode,
		Values:    maps.Clone(c.values),
		Touched:   maps.Clone(c.touched),
		Errors:    errs,
		Visible:   visible,
		Remaining: remaining,
		Failure:   c.failure,
		Saved:     c.saved,
		CanSubmit: c.canSubmit(),
		ReadOnly:  c.def.ReadOnly,
	}
}

// State is an immutable snapshot of a form.
type State struct {
	ID        record.ID         `json:"id,omitempty"`
	IsNew     bool              `json:"isNew"`
	Mode      Mode              `json:"mode"`
	Values    map[string]any    `json:"values"`
	Touched   map[string]bool   `json:"touched"`
	Errors    schema.Errors     `json:"errors"`
	Visible   map[string]string `json:"visibleErrors"`
	Remaining map[string]int    `json:"remaining,omitempty"`
	Failure   string            `json:"failure,omitempty"`
	Saved     bool              `json:"saved"`
	CanSubmit bool              `json:"canSubmit"`
	ReadOnly  bool              `json:"readOnly"`
}

// IsValid reports whether the schema passes.
func (s State) IsValid() bool { return len(s.Errors) == 0 }
