package place

import (
	"strings"

	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
)

// Resource is the REST collection for places.
const Resource = "/v1/place"

// Place is a venue where cooperators deliver services.
type Place struct {
	ID           record.ID `json:"id,omitempty"`
	FullName     string    `json:"fullName"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	MobileNumber string    `json:"mobileNumber,omitempty"`
	ZipCode      string    `json:"zipCode"`
	Street       string    `json:"street"`
	Number       string    `json:"number,omitempty"`
	District     string    `json:"district"`
	Reference    string    `json:"reference,omitempty"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Active       bool      `json:"active"`
	record.Audit
}

// RecordID implements record.Entity.
func (p Place) RecordID() record.ID { return p.ID }

// Cells renders the list row.
func (p Place) Cells() record.Cells {
	return record.Cells{
		"fullName":         p.FullName,
		"district":         p.District,
		"street":           strings.TrimSpace(p.Street + " " + p.Number),
		"zipCode":          p.ZipCode,
		"phoneNumber":      p.PhoneNumber,
		"mobileNumber":     p.MobileNumber,
		"createdDate":      strings.TrimSpace(p.CreatedBy + " " + p.CreatedDate.Format()),
		"lastModifiedDate": strings.TrimSpace(p.LastModifiedBy + " " + p.LastModifiedDate.Format()),
		"active":           record.YesNo(p.Active),
	}
}

// Definition describes places to the console.
var Definition = record.Definition{
	Name:        "place",
	Title:       "Places",
	Singular:    "Place",
	Resource:    Resource,
	SearchParam: "fullName",
	LabelField:  "fullName",
	DefaultSort: "fullName",
	Columns: []record.Column{
		{Field: "fullName", Label: "Name", Sortable: true, Link: "place"},
		{Field: "street", Label: "Address", Sortable: true},
		{Field: "zipCode", Label: "Zip code", Sortable: true},
		{Field: "phoneNumber", Label: "Phone", Sortable: true},
		{Field: "mobileNumber", Label: "Mobile", Sortable: true},
		{Field: "createdDate", Label: "Created", Sortable: true},
		{Field: "lastModifiedDate", Label: "Modified", Sortable: true},
	},
	Schema: schema.Schema{Fields: []schema.Field{
		{Name: "fullName", Label: "Name", Kind: schema.KindText, Presence: &schema.Presence{Message: "Name is required"}},
		{Name: "phoneNumber", Label: "Phone", Kind: schema.KindText},
		{Name: "mobileNumber", Label: "Mobile", Kind: schema.KindText},
		{Name: "zipCode", Label: "Zip code", Kind: schema.KindText, Presence: &schema.Presence{Message: "Zip code is required"}},
		{Name: "street", Label: "Street", Kind: schema.KindText, Presence: &schema.Presence{Message: "Address is required"}},
		{Name: "number", Label: "Number", Kind: schema.KindText},
		{Name: "district", Label: "District", Kind: schema.KindText, Presence: &schema.Presence{Message: "District is required"}},
		{Name: "reference", Label: "Reference", Kind: schema.KindText},
		{Name: "active", Label: "Active", Kind: schema.KindBool},
	}},
	Blank: func() map[string]any {
		return map[string]any{
			"fullName":     "",
			"phoneNumber":  "",
			"mobileNumber": "",
			"zipCode":      "",
			"street":       "",
			"number":       "",
			"district":     "",
			"reference":    "",
			"active":       false,
		}
	},
}
