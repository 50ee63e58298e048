package record

import (
	"encoding/json"
	"testing"
	"time"
)

// TestID_JSON verifies ids decode from numbers and strings and encode numerically.
func TestID_JSON(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 42, "b": "x-1", "c": null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != "42" || v.B != "x-1" || v.C != "" {
		t.Fatalf("unexpected ids: %+v", v)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":42,"b":"x-1","c":null}` {
		t.Errorf("unexpected encoding: %s", out)
	}
}

// TestIDOf verifies decoded JSON values normalize to ids.
func TestIDOf(t *testing.T) {
	tests := []struct {
		in   any
		want ID
	}{
		{nil, ""},
		{42.0, "42"},
		{"abc", "abc"},
		{json.Number("7"), "7"},
		{map[string]any{"id": 9.0}, "9"},
	}
	for _, tt := range tests {
		if got := IDOf(tt.in); got != tt.want {
			t.Errorf("IDOf(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestTimestamp_Layouts verifies zone-less backend dates are accepted.
func TestTimestamp_Layouts(t *testing.T) {
	for _, in := range []string{`"2020-05-01T10:30:00Z"`, `"2020-05-01T10:30:00"`, `"2020-05-01T10:30:00.123"`, `"2020-05-01"`} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Errorf("%s: %v", in, err)
			continue
		}
		if ts.Year() != 2020 || ts.Month() != time.May || ts.Day() != 1 {
			t.Errorf("%s: parsed %v", in, ts.Time)
		}
	}
	var empty Timestamp
	if err := json.Unmarshal([]byte(`null`), &empty); err != nil || !empty.IsZero() {
		t.Errorf("expected zero time for null, got %v (%v)", empty.Time, err)
	}
	if err := json.Unmarshal([]byte(`"yesterday"`), &empty); err == nil {
		t.Error("expected error for unknown layout")
	}
}

// TestMoney verifies currency formatting.
func TestMoney(t *testing.T) {
	tests := map[float64]string{
		0:       "R$ 0,00",
		19.9:    "R$ 19,90",
		1234.5:  "R$ 1.234,50",
		1000000: "R$ 1.000.000,00",
		-5:      "-R$ 5,00",
	}
	for in, want := range tests {
		if got := Money(in); got != want {
			t.Errorf("Money(%v) = %q, want %q", in, got, want)
		}
	}
}

// TestDefinition_SortFields verifies only sortable columns are listed, in order.
func TestDefinition_SortFields(t *testing.T) {
	d := Definition{Resource: "/v1/place", Columns: []Column{
		{Field: "fullName", Sortable: true},
		{Field: "district"},
		{Field: "createdDate", Sortable: true},
	}}
	if got := d.SortFields(); len(got) != 2 || got[0] != "fullName" || got[1] != "createdDate" {
		t.Errorf("unexpected sort fields %v", got)
	}
}

// TestID_MarshalNonCanonical verifies ids that are not canonical integers encode as strings.
func TestID_MarshalNonCanonical(t *testing.T) {
	tests := map[ID]string{
		"5":   `5`,
		"-12": `-12`,
		"007": `"007"`,
		"+5":  `"+5"`,
		"1e3": `"1e3"`,
		"0":   `0`,
		"-0":  `"-0"`,
		"9a":  `"9a"`,
	}
	for in, want := range tests {
		out, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal %q: %v", in, err)
		}
		if string(out) != want {
			t.Errorf("Marshal(%q) = %s, want %s", in, out, want)
		}
		if !json.Valid(out) {
			t.Errorf("Marshal(%q) produced invalid JSON %s", in, out)
		}
	}
}
