// Package listutil holds the paging and sorting vocabulary shared by the
// console's list pages and the upstream list endpoints.
package listutil

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortParams is the single active sort key.
type SortParams struct {
	Field string
	Dir   Direction
}

// Toggle returns the sort produced by a click on field's column header.
// PRE: none
// POST: the active ascending column flips to descending; any other column,
// or the active descending one, becomes ascending
func (s SortParams) Toggle(field string) SortParams {
	if s.Field == field && s.Dir == Asc {
		return SortParams{Field: field, Dir: Desc}
	}
	return SortParams{Field: field, Dir: Asc}
}

// String encodes the sort the way the upstream API expects it ("field,dir").
func (s SortParams) String() string {
	if s.Field == "" {
		return ""
	}
	return s.Field + "," + string(s.Dir)
}

// DefaultPageSize is the default number of rows per page.
const DefaultPageSize = 20

// PageSizeOptions are the allowed rows-per-page values.
var PageSizeOptions = []int{5, 10, 20, 50}

// ValidPageSize reports whether n is one of PageSizeOptions.
func ValidPageSize(n int) bool {
	for _, opt := range PageSizeOptions {
		if n == opt {
			return true
		}
	}
	return false
}

// ParseSortParams reads the sort key from "sort" and "dir", accepting the
// upstream "field,dir" form as well.
// PRE: none
// POST: ok is false when no sort is named; Dir is always asc or desc
func ParseSortParams(q url.Values) (SortParams, bool) {
	field := strings.TrimSpace(q.Get("sort"))
	dir := q.Get("dir")
	if f, d, found := strings.Cut(field, ","); found {
		field, dir = f, d
	}
	if field == "" {
		return SortParams{}, false
	}
	sp := SortParams{Field: field, Dir: Asc}
	if strings.EqualFold(strings.TrimSpace(dir), string(Desc)) {
		sp.Dir = Desc
	}
	return sp, true
}

// ListQuery is the request sent to an upstream list endpoint.
// INVARIANT: Page >= 0 is the server's zero-based page index; Size > 0
type ListQuery struct {
	Page    int
	Size    int
	Sort    SortParams
	Filters map[string]string
}

// Validate checks the query invariants.
func (q ListQuery) Validate() error {
	if q.Page < 0 {
		return fmt.Errorf("page must be >= 0, got %d", q.Page)
	}
	if q.Size <= 0 {
		return fmt.Errorf("size must be > 0, got %d", q.Size)
	}
	return nil
}

// Encode returns the query string with keys in a stable order:
// page, size and sort first, then filters alphabetically.
func (q ListQuery) Encode() string {
	parts := []string{
		"page=" + strconv.Itoa(q.Page),
		"size=" + strconv.Itoa(q.Size),
	}
	if q.Sort.Field != "" {
		// the comma is a legal sub-delimiter and the backend expects it literally
		parts = append(parts, "sort="+url.PathEscape(q.Sort.Field)+","+string(q.Sort.Dir))
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(q.Filters[k]))
	}
	return strings.Join(parts, "&")
}

// ErrMalformedResult is returned for list envelopes that break their invariants.
var ErrMalformedResult = errors.New("malformed list result")

// Result is the upstream list envelope.
// INVARIANT: len(Items) <= Size
type Result[T any] struct {
	Items            []T `json:"content"`
	Page             int `json:"number"`
	Size             int `json:"size"`
	NumberOfElements int `json:"numberOfElements"`
	TotalPages       int `json:"totalPages"`
	// TotalElements is optional; when absent NumberOfElements is the count.
	TotalElements int `json:"totalElements,omitempty"`
}

// Validate rejects envelopes that break the size invariant.
func (r Result[T]) Validate() error {
	if r.Size > 0 && len(r.Items) > r.Size {
		return fmt.Errorf("%w: %d items exceed page size %d", ErrMalformedResult, len(r.Items), r.Size)
	}
	if r.Page < 0 {
		return fmt.Errorf("%w: negative page %d", ErrMalformedResult, r.Page)
	}
	return nil
}

// Count is the total number of matching records.
func (r Result[T]) Count() int {
	if r.TotalElements > 0 {
		return r.TotalElements
	}
	return r.NumberOfElements
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	Size       int // rows per page
	Total      int // total matching rows
	TotalPages int
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0, size > 0, page >= 1
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, size, total, totalPages int) PageInfo {
	if size < 1 {
		size = DefaultPageSize
	}
	if totalPages < 1 {
		totalPages = (total + size - 1) / size
	}
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{Page: page, Size: size, Total: total, TotalPages: totalPages}
}

// Offset returns the zero-based index of the first row on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.Size
}

// StartRow returns the 1-indexed first row number on the current page.
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
// POST: Returns min(Offset+Size, Total)
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.Size, p.Total)
}

// Label renders the "from-to of count" caption.
func (p PageInfo) Label() string {
	return fmt.Sprintf("%d-%d of %d", p.StartRow(), p.EndRow(), p.Total)
}

// PageNumbers returns the page numbers to display in pagination controls.
// Shows at most 5 pages centered around the current page.
// POST: Returns slice of at most 5 page numbers centered on current page
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := max(p.Page-maxButtons/2, 1)
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(end-maxButtons+1, 1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// ShowPagination returns true if pagination controls should be displayed.
// POST: Returns true if more than one page exists
func (p PageInfo) ShowPagination() bool {
	return p.TotalPages > 1
}
