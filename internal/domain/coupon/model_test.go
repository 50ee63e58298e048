package coupon_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"backoffice/internal/domain/coupon"
)

// TestDefinition_Schema verifies coupon numeric bounds and required fields.
func TestDefinition_Schema(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{"description": "Ten off", "expirationAt": "2030-01-01", "discount": 10.0, "quantity": 5.0, "limit": 1.0}
	}
	tests := []struct {
		name  string
		field string
		value any
		fails bool
	}{
		{"discount zero", "discount", 0.0, false},
		{"discount hundred", "discount", 100.0, false},
		{"discount over", "discount", 100.5, true},
		{"negative quantity", "quantity", -1.0, true},
		{"negative limit", "limit", -3.0, true},
		{"annotation at limit", "annotation", strings.Repeat("a", coupon.MaxAnnotationLength), false},
		{"annotation over limit", "annotation", strings.Repeat("a", coupon.MaxAnnotationLength+1), true},
		{"missing expiration", "expirationAt", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := valid()
			values[tt.field] = tt.value
			_, failed := coupon.Definition.Schema.Validate(values)[tt.field]
			assert.Equal(t, tt.fails, failed)
		})
	}
}

// TestDefinition_CollapseImages verifies uploaded images are sent as storage keys.
func TestDefinition_CollapseImages(t *testing.T) {
	values := coupon.Definition.Blank()
	values["thumbnail"] = map[string]any{"key": "k1.png", "uri": "https://cdn/k1.png"}
	got := coupon.Definition.Schema.Collapse(values)
	assert.Equal(t, "k1.png", got["thumbnail"])
	assert.Nil(t, got["image"])
}

// TestUsage_Cells verifies unredeemed codes render as pending.
func TestUsage_Cells(t *testing.T) {
	assert.Equal(t, "awaiting use", coupon.Usage{Code: "X1"}.Cells()["store"])
	assert.Equal(t, "Shop A", coupon.Usage{Code: "X1", Store: &coupon.Shop{FullName: "Shop A"}}.Cells()["store"])
}
