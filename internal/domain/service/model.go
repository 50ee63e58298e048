package service

import (
	"strings"

	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
	"backoffice/internal/domain/servicetype"
)

// Resource is the REST collection for services.
const Resource = "/v1/service"

// MaxAnnotationLength bounds the free-text annotation.
const MaxAnnotationLength = 255

// Service is something a cooperator offers at a place.
type Service struct {
	ID          record.ID                `json:"id,omitempty"`
	Description string                   `json:"description"`
	Type        *servicetype.ServiceType `json:"type,omitempty"`
	Annotation  string                   `json:"annotation,omitempty"`
	Active      bool                     `json:"active"`
	record.Audit
}

// RecordID implements record.Entity.
func (s Service) RecordID() record.ID { return s.ID }

// Cells renders the list row.
func (s Service) Cells() record.Cells {
	typ := ""
	if s.Type != nil {
		typ = s.Type.Description
	}
	return record.Cells{
		"description":      s.Description,
		"type":             typ,
		"active":           record.YesNo(s.Active),
		"createdDate":      strings.TrimSpace(s.CreatedBy + " " + s.CreatedDate.Format()),
		"lastModifiedDate": strings.TrimSpace(s.LastModifiedBy + " " + s.LastModifiedDate.Format()),
	}
}

// Definition describes services to the console.
var Definition = record.Definition{
	Name:        "service",
	Title:       "Services",
	Singular:    "Service",
	Resource:    Resource,
	SearchParam: "description",
	LabelField:  "description",
	DefaultSort: "description",
	Columns: []record.Column{
		{Field: "description", Label: "Description", Sortable: true, Link: "service"},
		{Field: "type", Label: "Type"},
		{Field: "active", Label: "Active", Sortable: true},
		{Field: "createdDate", Label: "Created", Sortable: true},
		{Field: "lastModifiedDate", Label: "Modified", Sortable: true},
	},
	Schema: schema.Schema{Fields: []schema.Field{
		{Name: "description", Label: "Description", Kind: schema.KindText, Presence: &schema.Presence{Message: "Description is required"}},
		{Name: "type", Label: "Type", Kind: schema.KindRelation, Relation: schema.RelationOne, Search: "service-type",
			Presence: &schema.Presence{Message: "Type is required"}},
		{Name: "annotation", Label: "Annotation", Kind: schema.KindLongText, Length: &schema.Length{Max: MaxAnnotationLength}},
		{Name: "active", Label: "Active", Kind: schema.KindBool},
	}},
	Blank: func() map[string]any {
		return map[string]any{"description": "", "type": nil, "annotation": "", "active": false}
	},
}
