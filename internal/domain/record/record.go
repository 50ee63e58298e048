// Package record holds the building blocks shared by every marketplace entity:
// identifiers, audit stamps, uploaded image references and the declarative
// definition the console uses to list and edit an entity.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"backoffice/internal/domain/schema"
)

// ID identifies a server record. The backend emits numeric ids; the console
// treats them as opaque strings.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the backend receives its own type back.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	// only canonical integers round-trip as numbers; "007" and "+5" stay strings
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// IDOf normalizes a decoded JSON value (float64, string, json.Number) to an ID.
func IDOf(v any) ID {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return ID(x)
	case float64:
		return ID(strconv.FormatFloat(x, 'f', -1, 64))
	case json.Number:
		return ID(x.String())
	case ID:
		return x
	case map[string]any:
		return IDOf(x["id"])
	}
	return ID(fmt.Sprint(v))
}

// timestampLayouts are the formats the backend has been seen to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp is a time that tolerates zone-less backend formats.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parses any of the known backend layouts; null and "" yield the zero time.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Format renders the timestamp the way list tables show it (DD/MM/YYYY HH:mm:ss).
func (t Timestamp) Format() string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02/01/2006 15:04:05")
}

// FormatDate renders only the date part.
func (t Timestamp) FormatDate() string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02/01/2006")
}

// Audit carries the creation/modification stamps common to all records.
type Audit struct {
	CreatedBy        string    `json:"createdBy,omitempty"`
	CreatedDate      Timestamp `json:"createdDate"`
	LastModifiedBy   string    `json:"lastModifiedBy,omitempty"`
	LastModifiedDate Timestamp `json:"lastModifiedDate"`
}

// Image is the storage reference returned by the upload endpoint.
type Image struct {
	Key string `json:"key"`
	URI string `json:"uri"`
}

// Cells maps a column field to its rendered text.
type Cells map[string]string

// Entity is a record the list controller can render.
type Entity interface {
	RecordID() ID
	Cells() Cells
}

// Column describes one table column.
type Column struct {
	Field    string
	Label    string
	Sortable bool
	// Link, when set, is the entity whose detail page the cell links to.
	Link string
}

// Definition is the declarative description of one entity for the console.
type Definition struct {
	Name     string // route segment, e.g. "place"
	Title    string // page title
	Singular string
	Resource string // REST collection path
	// SearchParam is the filter parameter used for typeahead and name filtering;
	// empty when the backend offers no name search.
	SearchParam string
	// LabelField names the field shown for the record in typeahead options.
	LabelField  string
	Columns     []Column
	DefaultSort string
	Schema      schema.Schema
	// Blank returns the values of a new, unsaved record.
	Blank func() map[string]any
	// ReadOnly entities are listed but never edited from the console.
	ReadOnly bool
}

// SortFields returns the sortable column fields in display order.
func (d Definition) SortFields() []string {
	var out []string
	for _, c := range d.Columns {
		if c.Sortable {
			out = append(out, c.Field)
		}
	}
	return out
}

// Option is a typeahead choice built from a raw record.
type Option struct {
	ID    ID             `json:"id"`
	Label string         `json:"label"`
	Raw   map[string]any `json:"-"`
}

// OptionFrom builds an Option using labelField for the display text.
func OptionFrom(raw map[string]any, labelField string) Option {
	label, _ := raw[labelField].(string)
	return Option{ID: IDOf(raw["id"]), Label: label, Raw: raw}
}

// RecordID lets options be rendered by list controllers.
func (o Option) RecordID() ID { return o.ID }

// Cells renders the option label.
func (o Option) Cells() Cells { return Cells{"label": o.Label} }

// Money formats a price the way the dashboard displays currency (R$ 1.234,50).
func Money(v float64) string {
	if v < 0 {
		return "-R$ " + humanize.FormatFloat("#.###,##", -v)
	}
	return "R$ " + humanize.FormatFloat("#.###,##", v)
}

// YesNo renders a boolean cell.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
