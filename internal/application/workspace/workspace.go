// Package workspace holds the controllers one operator session has open:
// a list controller per entity, the detail form being edited and the
// typeaheads bound to relation fields.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"backoffice/internal/adapters/marketplace"
	"backoffice/internal/application/form"
	"backoffice/internal/application/listutil"
	"backoffice/internal/application/listview"
	"backoffice/internal/application/search"
	"backoffice/internal/domain/record"
)

// ErrNotSearchable is returned for entities without a name filter.
var ErrNotSearchable = errors.New("entity has no search")

// Config carries the per-deployment console settings.
type Config struct {
	PageSize    int
	Selection   listview.SelectionPolicy
	SearchDelay time.Duration
	Logger      *zap.Logger
}

// Workspace is one operator's set of open controllers.
// INVARIANT: at most one form is open per entity
type Workspace struct {
	client *marketplace.Client
	cfg    Config

	mu       sync.Mutex
	tables   map[string]listview.Table
	forms    map[string]*form.Controller
	searches map[string]*search.Typeahead[record.Option]
	lastUsed time.Time
}

// New creates an empty workspace.
func New(client *marketplace.Client, cfg Config) *Workspace {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if !listutil.ValidPageSize(cfg.PageSize) {
		cfg.PageSize = listutil.DefaultPageSize
	}
	return &Workspace{
		client:   client,
		cfg:      cfg,
		tables:   map[string]listview.Table{},
		forms:    map[string]*form.Controller{},
		searches: map[string]*search.Typeahead[record.Option]{},
		lastUsed: time.Now(),
	}
}

func (w *Workspace) touch() {
	w.lastUsed = time.Now()
}

// LastUsed reports when the workspace was last accessed.
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// Table returns the list controller for an entity, creating it on first use.
// A new table has issued no request; callers Load it.
func (w *Workspace) Table(name string) (listview.Table, record.Definition, error) {
	entry, err := Lookup(name)
	if err != nil {
		return nil, record.Definition{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	if t, ok := w.tables[name]; ok {
		return t, entry.Def, nil
	}
	t := entry.newTable(w.client, listview.Options{
		PageSize:  w.cfg.PageSize,
		Sort:      listutil.SortParams{Field: entry.Def.DefaultSort, Dir: listutil.Asc},
		Sortable:  entry.Def.SortFields(),
		Selection: w.cfg.Selection,
		Describe:  marketplace.Describe,
		Logger:    w.cfg.Logger.With(zap.String("entity", name)),
	})
	w.tables[name] = t
	return t, entry.Def, nil
}

// Form returns the open form for entity name and id, loading it when it is
// not the form currently open for that entity. An empty id opens the blank
// template for a new record.
// POST: the returned controller has completed Load (successfully or not)
func (w *Workspace) Form(ctx context.Context, name string, id record.ID) (*form.Controller, record.Definition, error) {
	entry, err := Lookup(name)
	if err != nil {
		return nil, record.Definition{}, err
	}
	w.mu.Lock()
	w.touch()
	c, ok := w.forms[name]
	if ok && c.ID() == id && c.Snapshot().Mode != form.ModeFailed {
		w.mu.Unlock()
		return c, entry.Def, nil
	}
	c = form.New(form.FromRecord(entry.Def), w.client, form.Options{
		Describe: marketplace.Describe,
		Logger:   w.cfg.Logger.With(zap.String("entity", name)),
	})
	w.forms[name] = c
	w.mu.Unlock()

	if err := c.Load(ctx, id); err != nil && !errors.Is(err, form.ErrStale) {
		return c, entry.Def, err
	}
	return c, entry.Def, nil
}

// Search runs the debounced typeahead of an entity.
// POST: returns search.ErrSuperseded when a newer keystroke overtook this one
func (w *Workspace) Search(ctx context.Context, name, q string) ([]record.Option, error) {
	entry, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if entry.Def.SearchParam == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotSearchable, name)
	}
	w.mu.Lock()
	w.touch()
	t, ok := w.searches[name]
	if !ok {
		def := entry.Def
		t = search.New(func(ctx context.Context, q string) ([]record.Option, error) {
			raws, err := w.client.Search(ctx, def.Resource, def.SearchParam, q)
			if err != nil {
				return nil, err
			}
			opts := make([]record.Option, 0, len(raws))
			for _, raw := range raws {
				opts = append(opts, record.OptionFrom(raw, def.LabelField))
			}
			return opts, nil
		}, w.cfg.SearchDelay)
		w.searches[name] = t
	}
	w.mu.Unlock()
	return t.Search(ctx, q)
}

// Close abandons pending typeahead calls.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.searches {
		t.Cancel()
	}
}
