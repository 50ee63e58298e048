// Package listview implements the generic paginated, sortable, selectable
// list controller shared by every entity list page.
package listview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"backoffice/internal/application/listutil"
	"backoffice/internal/domain/record"
)

// Status is the controller's fetch lifecycle state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// SelectionPolicy decides what happens to the selection after a successful fetch.
type SelectionPolicy string

const (
	// SelectionClear empties the selection on every successful fetch.
	SelectionClear SelectionPolicy = "clear"
	// SelectionKeepVisible keeps only the selected ids present in the new page.
	SelectionKeepVisible SelectionPolicy = "keep-visible"
)

// ParseSelectionPolicy maps a configuration value to a policy; empty means clear.
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch SelectionPolicy(s) {
	case "", SelectionClear:
		return SelectionClear, nil
	case SelectionKeepVisible:
		return SelectionKeepVisible, nil
	}
	return "", fmt.Errorf("unknown selection policy %q", s)
}

var (
	// ErrNotSortable is returned when sorting by a column outside the sortable set.
	ErrNotSortable = errors.New("column is not sortable")
	// ErrInvalidPageSize is returned for sizes outside listutil.PageSizeOptions.
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidPage is returned for display pages below 1.
	ErrInvalidPage = errors.New("invalid page")
	// ErrStale is returned to callers whose fetch was overtaken by a newer one.
	// The controller state already reflects (or will reflect) the newer fetch.
	ErrStale = errors.New("list fetch superseded")
)

// Fetcher loads one page of entities.
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, q listutil.ListQuery) (listutil.Result[T], error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc[T any] func(ctx context.Context, q listutil.ListQuery) (listutil.Result[T], error)

// FetchPage calls f.
func (f FetchFunc[T]) FetchPage(ctx context.Context, q listutil.ListQuery) (listutil.Result[T], error) {
	return f(ctx, q)
}

// Options configures a Controller.
type Options struct {
	PageSize  int
	Sort      listutil.SortParams
	Sortable  []string
	Filters   map[string]string
	Selection SelectionPolicy
	// Describe turns a fetch error into the operator-facing message.
	Describe func(error) string
	Logger   *zap.Logger
}

// Controller holds the list state for one entity list in one operator session.
// INVARIANT: mu is never held across a fetch
// INVARIANT: only the completion of the latest fetch mutates Items
type Controller[T record.Entity] struct {
	fetch Fetcher[T]
	opts  Options
	log   *zap.Logger

	mu       sync.Mutex
	query    listutil.ListQuery
	status   Status
	result   listutil.Result[T]
	failure  string
	selected []record.ID
	seq      uint64
	cancel   context.CancelFunc
}

// New creates an idle controller.
// PRE: fetch is non-nil
// POST: no request is issued until Load
func New[T record.Entity](fetch Fetcher[T], opts Options) *Controller[T] {
	if !listutil.ValidPageSize(opts.PageSize) {
		opts.PageSize = listutil.DefaultPageSize
	}
	if opts.Sort.Dir == "" {
		opts.Sort.Dir = listutil.Asc
	}
	if opts.Selection == "" {
		opts.Selection = SelectionClear
	}
	if opts.Describe == nil {
		opts.Describe = func(err error) string { return err.Error() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	filters := make(map[string]string, len(opts.Filters))
	for k, v := range opts.Filters {
		filters[k] = v
	}
	return &Controller[T]{
		fetch:  fetch,
		opts:   opts,
		log:    opts.Logger,
		status: StatusIdle,
		query: listutil.ListQuery{
			Page:    0,
			Size:    opts.PageSize,
			Sort:    opts.Sort,
			Filters: filters,
		},
	}
}

// Load issues the initial fetch with the current query.
func (c *Controller[T]) Load(ctx context.Context) error {
	return c.run(ctx, nil)
}

// Refresh re-issues the current query.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	return c.run(ctx, nil)
}

// Navigation is a set of list changes applied with a single fetch, as carried
// by a list URL. Zero fields keep the current value.
type Navigation struct {
	Page    int // display page, 1-based
	Size    int
	Sort    *listutil.SortParams
	Filters map[string]string // nil keeps the filters; empty values clear a key
}

// Navigate applies nav and refetches once.
// PRE: nav.Sort, when set, names a sortable column; nav.Size, when set, is a page size option
// POST: a size or filter change lands on the first page and ignores nav.Page
func (c *Controller[T]) Navigate(ctx context.Context, nav Navigation) error {
	if nav.Sort != nil && !slices.Contains(c.opts.Sortable, nav.Sort.Field) {
		return fmt.Errorf("%w: %q", ErrNotSortable, nav.Sort.Field)
	}
	if nav.Size != 0 && !listutil.ValidPageSize(nav.Size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, nav.Size)
	}
	if nav.Page < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, nav.Page)
	}
	return c.run(ctx, func(q *listutil.ListQuery) {
		reset := false
		if nav.Sort != nil {
			q.Sort = *nav.Sort
			if q.Sort.Dir != listutil.Desc {
				q.Sort.Dir = listutil.Asc
			}
		}
		if nav.Size != 0 && nav.Size != q.Size {
			q.Size = nav.Size
			reset = true
		}
		for k, v := range nav.Filters {
			if q.Filters[k] == v {
				continue
			}
			if v == "" {
				delete(q.Filters, k)
			} else {
				q.Filters[k] = v
			}
			reset = true
		}
		switch {
		case reset:
			q.Page = 0
		case nav.Page > 0:
			q.Page = nav.Page - 1
		}
	})
}

// SortBy toggles the sort on field and refetches.
// PRE: field is one of the sortable columns
// POST: the issued query carries the toggled sort; the page is kept
func (c *Controller[T]) SortBy(ctx context.Context, field string) error {
	if !slices.Contains(c.opts.Sortable, field) {
		return fmt.Errorf("%w: %q", ErrNotSortable, field)
	}
	return c.run(ctx, func(q *listutil.ListQuery) {
		q.Sort = q.Sort.Toggle(field)
	})
}

// SetPage moves to the 1-based page shown to operators.
// PRE: displayPage >= 1
// POST: the issued query carries page displayPage-1
func (c *Controller[T]) SetPage(ctx context.Context, displayPage int) error {
	if displayPage < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, displayPage)
	}
	return c.run(ctx, func(q *listutil.ListQuery) {
		q.Page = displayPage - 1
	})
}

// SetPageSize changes the page size and returns to the first page.
// PRE: n is one of listutil.PageSizeOptions
// POST: the issued query carries page 0 and size n
func (c *Controller[T]) SetPageSize(ctx context.Context, n int) error {
	if !listutil.ValidPageSize(n) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	return c.run(ctx, func(q *listutil.ListQuery) {
		q.Size = n
		q.Page = 0
	})
}

// SetFilter sets (or clears, when value is empty) a filter and returns to the first page.
func (c *Controller[T]) SetFilter(ctx context.Context, key, value string) error {
	return c.run(ctx, func(q *listutil.ListQuery) {
		if value == "" {
			delete(q.Filters, key)
		} else {
			q.Filters[key] = value
		}
		q.Page = 0
	})
}

// run applies mutate to the query, cancels any in-flight fetch and fetches.
func (c *Controller[T]) run(ctx context.Context, mutate func(*listutil.ListQuery)) error {
	c.mu.Lock()
	if mutate != nil {
		mutate(&c.query)
	}
	q := c.query
	q.Filters = cloneFilters(c.query.Filters)
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.status = StatusLoading
	c.mu.Unlock()

	res, err := c.fetch.FetchPage(fetchCtx, q)
	if err == nil {
		err = res.Validate()
	}
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.log.Debug("list_fetch_discarded", zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return ErrStale
	}
	c.cancel = nil
	if err != nil {
		c.status = StatusErrored
		c.failure = c.opts.Describe(err)
		c.log.Warn("list_fetch_failed", zap.Error(err), zap.Int("page", q.Page), zap.Int("size", q.Size))
		return err
	}
	c.status = StatusLoaded
	c.failure = ""
	c.result = res
	c.query.Page = res.Page
	if res.Size > 0 {
		c.query.Size = res.Size
	}
	c.reconcileSelection()
	return nil
}

func (c *Controller[T]) reconcileSelection() {
	if c.opts.Selection == SelectionClear {
		c.selected = nil
		return
	}
	visible := c.visibleIDs()
	kept := c.selected[:0]
	for _, id := range c.selected {
		if slices.Contains(visible, id) {
			kept = append(kept, id)
		}
	}
	c.selected = kept
}

func (c *Controller[T]) visibleIDs() []record.ID {
	ids := make([]record.ID, 0, len(c.result.Items))
	for _, item := range c.result.Items {
		ids = append(ids, item.RecordID())
	}
	return ids
}

// Toggle adds id to the end of the selection, or removes it keeping the
// order of the others. Ids not on the current page are ignored.
func (c *Controller[T]) Toggle(id record.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.visibleIDs(), id) {
		return
	}
	if i := slices.Index(c.selected, id); i >= 0 {
		c.selected = slices.Delete(c.selected, i, i+1)
		return
	}
	c.selected = append(c.selected, id)
}

// ToggleAll clears the selection when every rendered row is selected,
// otherwise selects exactly the rendered rows.
func (c *Controller[T]) ToggleAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := c.visibleIDs()
	if allSelected(visible, c.selected) {
		c.selected = nil
		return
	}
	c.selected = visible
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.query
	q.Filters = cloneFilters(c.query.Filters)
	return State[T]{
		Status:     c.status,
		Query:      q,
		Items:      slices.Clone(c.result.Items),
		Count:      c.result.Count(),
		TotalPages: c.result.TotalPages,
		Selected:   slices.Clone(c.selected),
		Failure:    c.failure,
	}
}

// State is an immutable snapshot of a controller.
type State[T record.Entity] struct {
	Status     Status
	Query      listutil.ListQuery
	Items      []T
	Count      int
	TotalPages int
	Selected   []record.ID
	Failure    string
}

// DisplayPage is the 1-based page shown to operators.
func (s State[T]) DisplayPage() int { return s.Query.Page + 1 }

// Loading reports whether a fetch is in flight.
func (s State[T]) Loading() bool { return s.Status == StatusLoading }

// IsSelected reports whether id is selected.
func (s State[T]) IsSelected(id record.ID) bool { return slices.Contains(s.Selected, id) }

// AllSelected reports whether every rendered row is selected.
func (s State[T]) AllSelected() bool {
	ids := make([]record.ID, 0, len(s.Items))
	for _, item := range s.Items {
		ids = append(ids, item.RecordID())
	}
	return allSelected(ids, s.Selected)
}

// PageInfo computes the pagination caption for the snapshot.
func (s State[T]) PageInfo() listutil.PageInfo {
	return listutil.NewPageInfo(s.DisplayPage(), s.Query.Size, s.Count, s.TotalPages)
}

// Row is one rendered data row.
type Row struct {
	ID       record.ID    `json:"id"`
	Cells    record.Cells `json:"cells"`
	Selected bool         `json:"selected"`
}

// View is what the table renders.
// INVARIANT: Skeletons > 0 implies Rows is empty
type View struct {
	Skeletons int   `json:"skeletons"`
	Rows      []Row `json:"rows"`
}

// View returns skeleton placeholders while loading, otherwise the data rows.
func (s State[T]) View() View {
	if s.Loading() {
		return View{Skeletons: s.Query.Size}
	}
	rows := make([]Row, 0, len(s.Items))
	for _, item := range s.Items {
		id := item.RecordID()
		rows = append(rows, Row{ID: id, Cells: item.Cells(), Selected: s.IsSelected(id)})
	}
	return View{Rows: rows}
}

func allSelected(visible, selected []record.ID) bool {
	if len(visible) == 0 {
		return false
	}
	for _, id := range visible {
		if !slices.Contains(selected, id) {
			return false
		}
	}
	return true
}

func cloneFilters(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
