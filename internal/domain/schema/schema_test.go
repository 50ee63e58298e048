package schema

import (
	"regexp"
	"testing"
)

var testSchema = Schema{Fields: []Field{
	{Name: "description", Label: "Description", Presence: &Presence{Message: "Description is required"}},
	{Name: "email", Label: "Email", Pattern: &Pattern{Expr: regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)}},
	{Name: "discount", Label: "Discount", Kind: KindNumber, Range: &Range{Min: Bound(0), Max: Bound(100)}},
	{Name: "annotation", Label: "Annotation", Kind: KindLongText, Length: &Length{Max: 5}},
	{Name: "place", Relation: RelationOne, Presence: &Presence{}},
	{Name: "services", Relation: RelationMany},
	{Name: "thumbnail", Relation: RelationFile},
}}

// TestValidate_Presence verifies empty, whitespace and missing values fail presence.
func TestValidate_Presence(t *testing.T) {
	for _, v := range []any{nil, "", "   ", []any{}, map[string]any{}} {
		errs := testSchema.Validate(map[string]any{"description": v, "place": 1})
		if got := errs["description"]; len(got) != 1 || got[0] != "Description is required" {
			t.Errorf("value %#v: expected presence error, got %v", v, got)
		}
	}
	errs := testSchema.Validate(map[string]any{"description": "Haircut", "place": map[string]any{"id": 1}})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

// TestValidate_ZeroIsPresent verifies a numeric zero satisfies presence.
func TestValidate_ZeroIsPresent(t *testing.T) {
	s := Schema{Fields: []Field{{Name: "price", Presence: &Presence{}}}}
	if errs := s.Validate(map[string]any{"price": 0.0}); len(errs) != 0 {
		t.Fatalf("expected zero to be present, got %v", errs)
	}
}

// TestValidate_Rules verifies pattern, range and length rules.
func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		fail  bool
	}{
		{"valid email", "email", "ana@example.com", false},
		{"invalid email", "email", "ana", true},
		{"empty email skips pattern", "email", "", false},
		{"discount in range", "discount", 10.0, false},
		{"discount above max", "discount", 101.0, true},
		{"discount below min", "discount", -1.0, true},
		{"discount not a number", "discount", "ten", true},
		{"numeric string", "discount", "50", false},
		{"annotation short", "annotation", "abcde", false},
		{"annotation long", "annotation", "abcdef", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := map[string]any{"description": "x", "place": 1, tt.field: tt.value}
			_, failed := testSchema.Validate(values)[tt.field]
			if failed != tt.fail {
				t.Errorf("field %s value %#v: failed=%v, want %v", tt.field, tt.value, failed, tt.fail)
			}
		})
	}
}

// TestCollapse verifies relations are reduced to bare references.
func TestCollapse(t *testing.T) {
	values := map[string]any{
		"description": "Cut",
		"place":       map[string]any{"id": 7.0, "fullName": "Downtown"},
		"services":    []any{map[string]any{"id": 1.0}, map[string]any{"id": 2.0}},
		"thumbnail":   map[string]any{"key": "abc.png", "uri": "https://cdn/abc.png"},
	}
	got := testSchema.Collapse(values)

	if got["place"] != 7.0 {
		t.Errorf("expected place id 7, got %#v", got["place"])
	}
	ids, ok := got["services"].([]any)
	if !ok || len(ids) != 2 || ids[0] != 1.0 || ids[1] != 2.0 {
		t.Errorf("expected service ids [1 2], got %#v", got["services"])
	}
	if got["thumbnail"] != "abc.png" {
		t.Errorf("expected thumbnail key, got %#v", got["thumbnail"])
	}
	if _, ok := values["place"].(map[string]any); !ok {
		t.Error("Collapse must not mutate its input")
	}
}

// TestField_Parse verifies raw input conversion per kind.
func TestField_Parse(t *testing.T) {
	number := Field{Kind: KindNumber}
	if got := number.Parse(" 12 "); got != 12.0 {
		t.Errorf("expected 12, got %#v", got)
	}
	if got := number.Parse("abc"); got != "abc" {
		t.Errorf("expected raw string for bad number, got %#v", got)
	}
	if got := number.Parse(""); got != nil {
		t.Errorf("expected nil for empty number, got %#v", got)
	}
	money := Field{Kind: KindMoney}
	if got := money.Parse("19,90"); got != 19.9 {
		t.Errorf("expected 19.9, got %#v", got)
	}
	flag := Field{Kind: KindBool}
	if got := flag.Parse("on"); got != true {
		t.Errorf("expected true, got %#v", got)
	}
}

// TestField_Remaining verifies the characters-left helper.
func TestField_Remaining(t *testing.T) {
	f, _ := testSchema.Field("annotation")
	if got := f.Remaining("abc"); got != 2 {
		t.Errorf("expected 2 remaining, got %d", got)
	}
	d, _ := testSchema.Field("description")
	if got := d.Remaining("abc"); got != -1 {
		t.Errorf("expected -1 without length rule, got %d", got)
	}
}
