package servicetype

import (
	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
)

// Resource is the REST collection for service types.
const Resource = "/v1/service-type"

// ServiceType groups services (e.g. hair, nails).
type ServiceType struct {
	ID          record.ID `json:"id,omitempty"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
}

// RecordID implements record.Entity.
func (t ServiceType) RecordID() record.ID { return t.ID }

// Cells renders the list row.
func (t ServiceType) Cells() record.Cells {
	return record.Cells{"description": t.Description, "active": record.YesNo(t.Active)}
}

// Definition describes service types to the console.
var Definition = record.Definition{
	Name:        "service-type",
	Title:       "Service types",
	Singular:    "Service type",
	Resource:    Resource,
	SearchParam: "description",
	LabelField:  "description",
	DefaultSort: "description",
	Columns: []record.Column{
		{Field: "description", Label: "Description", Sortable: true, Link: "service-type"},
		{Field: "active", Label: "Active", Sortable: true},
	},
	Schema: schema.Schema{Fields: []schema.Field{
		{Name: "description", Label: "Description", Kind: schema.KindText, Presence: &schema.Presence{Message: "Description is required"}},
		{Name: "active", Label: "Active", Kind: schema.KindBool},
	}},
	Blank: func() map[string]any {
		return map[string]any{"description": "", "active": false}
	},
}
