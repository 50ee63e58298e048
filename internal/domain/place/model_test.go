package place_test

import (
	"slices"
	"testing"

	"backoffice/internal/domain/place"
)

// TestDefinition_Schema verifies the required address fields.
func TestDefinition_Schema(t *testing.T) {
	errs := place.Definition.Schema.Validate(place.Definition.Blank())
	for _, f := range []string{"fullName", "street", "district", "zipCode"} {
		if len(errs[f]) == 0 {
			t.Errorf("expected %s to be required", f)
		}
	}
	if len(errs) != 4 {
		t.Errorf("expected exactly four errors, got %v", errs)
	}
	if got := errs["street"][0]; got != "Address is required" {
		t.Errorf("unexpected street message %q", got)
	}
}

// TestDefinition_SortFields verifies only listed columns sort.
func TestDefinition_SortFields(t *testing.T) {
	fields := place.Definition.SortFields()
	if !slices.Contains(fields, "fullName") || slices.Contains(fields, "district") {
		t.Errorf("unexpected sortable columns %v", fields)
	}
}

// TestPlace_Cells verifies address joining.
func TestPlace_Cells(t *testing.T) {
	cells := place.Place{FullName: "Downtown", Street: "Main St", Number: "12"}.Cells()
	if cells["street"] != "Main St 12" {
		t.Errorf("unexpected street cell %q", cells["street"])
	}
}
