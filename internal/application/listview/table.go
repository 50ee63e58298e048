package listview

import (
	"context"

	"backoffice/internal/application/listutil"
	"backoffice/internal/domain/record"
)

// Table is a list controller with its entity type erased, for use by the web layer.
type Table interface {
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	SortBy(ctx context.Context, field string) error
	SetPage(ctx context.Context, displayPage int) error
	SetPageSize(ctx context.Context, n int) error
	SetFilter(ctx context.Context, key, value string) error
	Navigate(ctx context.Context, nav Navigation) error
	Toggle(id record.ID)
	ToggleAll()
	Render() Page
}

// Page is the rendered table: toolbar, rows (or skeletons) and pagination.
type Page struct {
	Status        Status              `json:"status"`
	Sort          listutil.SortParams `json:"sort"`
	Filters       map[string]string   `json:"filters,omitempty"`
	View          View                `json:"view"`
	Selected      []record.ID         `json:"selected"`
	SelectedCount int                 `json:"selectedCount"`
	AllSelected   bool                `json:"allSelected"`
	Info          listutil.PageInfo   `json:"pageInfo"`
	DisplayPage   int                 `json:"page"`
	Size          int                 `json:"size"`
	SizeOptions   []int               `json:"sizeOptions"`
	Failure       string              `json:"failure,omitempty"`
}

// Render snapshots the controller into a Page.
func (c *Controller[T]) Render() Page {
	s := c.Snapshot()
	return Page{
		Status:        s.Status,
		Sort:          s.Query.Sort,
		Filters:       s.Query.Filters,
		View:          s.View(),
		Selected:      s.Selected,
		SelectedCount: len(s.Selected),
		AllSelected:   s.AllSelected(),
		Info:          s.PageInfo(),
		DisplayPage:   s.DisplayPage(),
		Size:          s.Query.Size,
		SizeOptions:   listutil.PageSizeOptions,
		Failure:       s.Failure,
	}
}

var _ Table = (*Controller[record.Option])(nil)
