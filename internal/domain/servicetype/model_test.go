package servicetype_test

import (
	"testing"

	"backoffice/internal/domain/servicetype"
)

// TestDefinition_Schema verifies description is the only required field.
func TestDefinition_Schema(t *testing.T) {
	errs := servicetype.Definition.Schema.Validate(servicetype.Definition.Blank())
	if len(errs) != 1 || errs["description"][0] != "Description is required" {
		t.Errorf("unexpected errors %v", errs)
	}
	if errs := servicetype.Definition.Schema.Validate(map[string]any{"description": "Beauty"}); len(errs) != 0 {
		t.Errorf("expected a valid record, got %v", errs)
	}
}

func TestServiceType_Cells(t *testing.T) {
	cells := servicetype.ServiceType{ID: "3", Description: "Beauty", Active: true}.Cells()
	if cells["description"] != "Beauty" || cells["active"] == "" {
		t.Errorf("unexpected cells %v", cells)
	}
}
