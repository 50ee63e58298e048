package listutil

import (
	"net/url"
	"testing"
)

// TestSortParams_Toggle verifies header clicks cycle the single sort key.
func TestSortParams_Toggle(t *testing.T) {
	tests := []struct {
		name  string
		from  SortParams
		click string
		want  SortParams
	}{
		{"active asc becomes desc", SortParams{"fullName", Asc}, "fullName", SortParams{"fullName", Desc}},
		{"active desc becomes asc", SortParams{"fullName", Desc}, "fullName", SortParams{"fullName", Asc}},
		{"other column starts asc", SortParams{"fullName", Desc}, "street", SortParams{"street", Asc}},
		{"unsorted starts asc", SortParams{}, "street", SortParams{"street", Asc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.Toggle(tt.click); got != tt.want {
				t.Errorf("Toggle(%q) = %+v, want %+v", tt.click, got, tt.want)
			}
		})
	}
}

// TestListQuery_Encode verifies the upstream query encoding.
func TestListQuery_Encode(t *testing.T) {
	q := ListQuery{Page: 2, Size: 20, Sort: SortParams{Field: "fullName", Dir: Desc}}
	if got := q.Encode(); got != "page=2&size=20&sort=fullName,desc" {
		t.Errorf("unexpected encoding %q", got)
	}
	q.Filters = map[string]string{"fullName": "ana", "active": "true"}
	if got := q.Encode(); got != "page=2&size=20&sort=fullName,desc&active=true&fullName=ana" {
		t.Errorf("unexpected encoding with filters %q", got)
	}
}

// TestListQuery_Validate verifies the page and size invariants.
func TestListQuery_Validate(t *testing.T) {
	if err := (ListQuery{Page: 0, Size: 5}).Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := (ListQuery{Page: -1, Size: 5}).Validate(); err == nil {
		t.Error("expected error for negative page")
	}
	if err := (ListQuery{Page: 0, Size: 0}).Validate(); err == nil {
		t.Error("expected error for zero size")
	}
}

// TestParseSortParams verifies both sort spellings and direction parsing.
func TestParseSortParams(t *testing.T) {
	tests := []struct {
		q      url.Values
		want   SortParams
		wantOK bool
	}{
		{url.Values{"sort": {"fullName"}, "dir": {"desc"}}, SortParams{"fullName", Desc}, true},
		{url.Values{"sort": {"street,desc"}}, SortParams{"street", Desc}, true},
		{url.Values{"sort": {"street,DESC"}, "dir": {"asc"}}, SortParams{"street", Desc}, true},
		{url.Values{"sort": {"fullName"}, "dir": {"DROP TABLE"}}, SortParams{"fullName", Asc}, true},
		{url.Values{"dir": {"desc"}}, SortParams{}, false},
		{url.Values{"sort": {" "}}, SortParams{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseSortParams(tt.q)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSortParams(%v) = %+v, %v, want %+v, %v", tt.q, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestResult_Validate verifies oversize pages are rejected.
func TestResult_Validate(t *testing.T) {
	ok := Result[int]{Items: []int{1, 2}, Size: 2}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	bad := Result[int]{Items: []int{1, 2, 3}, Size: 2}
	if err := bad.Validate(); err == nil {
		t.Error("expected malformed result error")
	}
}

// TestNewPageInfo verifies label, clamping and page numbers.
func TestNewPageInfo(t *testing.T) {
	p := NewPageInfo(2, 20, 45, 3)
	if p.Label() != "21-40 of 45" {
		t.Errorf("unexpected label %q", p.Label())
	}
	if !p.HasPrev() || !p.HasNext() || !p.ShowPagination() {
		t.Errorf("unexpected navigation flags %+v", p)
	}
	last := NewPageInfo(9, 20, 45, 0)
	if last.Page != 3 || last.Label() != "41-45 of 45" {
		t.Errorf("unexpected clamped info %+v %q", last, last.Label())
	}
	empty := NewPageInfo(1, 20, 0, 0)
	if empty.Label() != "0-0 of 0" || empty.ShowPagination() {
		t.Errorf("unexpected empty info %+v", empty)
	}
}

// TestPageInfo_PageNumbers verifies the window of page buttons.
func TestPageInfo_PageNumbers(t *testing.T) {
	got := NewPageInfo(10, 5, 100, 20).PageNumbers()
	want := []int{8, 9, 10, 11, 12}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if got := NewPageInfo(1, 5, 7, 2).PageNumbers(); len(got) != 2 {
		t.Errorf("expected 2 pages, got %v", got)
	}
}
