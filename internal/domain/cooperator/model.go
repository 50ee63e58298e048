package cooperator

import (
	"strings"

	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
	"backoffice/internal/domain/service"
)

// Resource is the REST collection for cooperators.
const Resource = "/v1/cooperator"

// MaxAnnotationLength bounds the free-text annotation.
const MaxAnnotationLength = 255

// Cooperator is a professional who delivers services.
type Cooperator struct {
	ID         record.ID         `json:"id,omitempty"`
	FullName   string            `json:"fullName"`
	ShortName  string            `json:"shortName,omitempty"`
	Register   string            `json:"register"`
	Thumbnail  string            `json:"thumbnail,omitempty"`
	Annotation string            `json:"annotation,omitempty"`
	Services   []service.Service `json:"services,omitempty"`
	Active     bool              `json:"active"`
	record.Audit
}

// RecordID implements record.Entity.
func (c Cooperator) RecordID() record.ID { return c.ID }

// Cells renders the list row.
func (c Cooperator) Cells() record.Cells {
	names := make([]string, 0, len(c.Services))
	for _, s := range c.Services {
		names = append(names, s.Description)
	}
	return record.Cells{
		"fullName":         c.FullName,
		"shortName":        c.ShortName,
		"register":         c.Register,
		"services":         strings.Join(names, ", "),
		"createdDate":      strings.TrimSpace(c.CreatedBy + " " + c.CreatedDate.Format()),
		"lastModifiedDate": strings.TrimSpace(c.LastModifiedBy + " " + c.LastModifiedDate.Format()),
	}
}

// Definition describes cooperators to the console.
var Definition = record.Definition{
	Name:        "cooperator",
	Title:       "Cooperators",
	Singular:    "Cooperator",
	Resource:    Resource,
	SearchParam: "fullName",
	LabelField:  "fullName",
	DefaultSort: "fullName",
	Columns: []record.Column{
		{Field: "fullName", Label: "Name", Sortable: true, Link: "cooperator"},
		{Field: "shortName", Label: "Short name", Sortable: true},
		{Field: "createdDate", Label: "Created", Sortable: true},
		{Field: "lastModifiedDate", Label: "Modified", Sortable: true},
	},
	Schema: schema.Schema{Fields: []schema.Field{
		{Name: "fullName", Label: "Name", Kind: schema.KindText, Presence: &schema.Presence{Message: "Name is required"}},
		{Name: "shortName", Label: "Short name", Kind: schema.KindText},
		{Name: "register", Label: "Register", Kind: schema.KindText, Presence: &schema.Presence{Message: "Register is required"}},
		{Name: "annotation", Label: "Annotation", Kind: schema.KindLongText, Length: &schema.Length{Max: MaxAnnotationLength}},
		{Name: "services", Label: "Services", Kind: schema.KindRelation, Relation: schema.RelationMany, Search: "service"},
		{Name: "active", Label: "Active", Kind: schema.KindBool},
	}},
	Blank: func() map[string]any {
		return map[string]any{
			"fullName":   "",
			"register":   "",
			"shortName":  "",
			"thumbnail":  "",
			"annotation": "",
			"active":     false,
			"services":   []any{},
		}
	},
}
