package cooperator_test

import (
	"encoding/json"
	"testing"

	"backoffice/internal/domain/cooperator"
)

// TestDefinition_CollapseServices verifies multi-valued relations become id lists.
func TestDefinition_CollapseServices(t *testing.T) {
	values := cooperator.Definition.Blank()
	values["fullName"] = "Ana"
	values["register"] = "R-1"
	values["services"] = []any{
		map[string]any{"id": 4.0, "description": "Cut"},
		map[string]any{"id": 9.0, "description": "Dye"},
	}
	if errs := cooperator.Definition.Schema.Validate(values); len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	body, err := json.Marshal(cooperator.Definition.Schema.Collapse(values))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)
	ids, _ := decoded["services"].([]any)
	if len(ids) != 2 || ids[0] != 4.0 || ids[1] != 9.0 {
		t.Errorf("expected [4 9], got %v", decoded["services"])
	}
}

// TestCooperator_Cells verifies service names are joined.
func TestCooperator_Cells(t *testing.T) {
	var c cooperator.Cooperator
	_ = json.Unmarshal([]byte(`{"fullName":"Ana","services":[{"description":"Cut"},{"description":"Dye"}]}`), &c)
	if got := c.Cells()["services"]; got != "Cut, Dye" {
		t.Errorf("got %q", got)
	}
}
