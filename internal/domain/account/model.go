package account

import (
	"regexp"
	"strings"

	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
)

// Resource is the REST collection for marketplace customer accounts.
const Resource = "/v1/account"

// MaxEmailLength bounds the email field.
const MaxEmailLength = 254

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Account is a marketplace customer.
type Account struct {
	ID             record.ID        `json:"id,omitempty"`
	FullName       string           `json:"fullName"`
	Email          string           `json:"email"`
	PhoneNumber    string           `json:"phoneNumber,omitempty"`
	ExpirationDate record.Timestamp `json:"expirationDate"`
	Active         bool             `json:"active"`
	record.Audit
}

// RecordID implements record.Entity.
func (a Account) RecordID() record.ID { return a.ID }

// Cells renders the list row.
func (a Account) Cells() record.Cells {
	expiration := a.ExpirationDate.FormatDate()
	if expiration == "" {
		expiration = "not informed"
	}
	return record.Cells{
		"fullName":         a.FullName,
		"phoneNumber":      a.PhoneNumber,
		"email":            a.Email,
		"expirationDate":   expiration,
		"active":           record.YesNo(a.Active),
		"createdDate":      strings.TrimSpace(a.CreatedBy + " " + a.CreatedDate.Format()),
		"lastModifiedDate": strings.TrimSpace(a.LastModifiedBy + " " + a.LastModifiedDate.Format()),
	}
}

// Definition describes accounts to the console.
var Definition = record.Definition{
	Name:        "account",
	Title:       "Accounts",
	Singular:    "Account",
	Resource:    Resource,
	SearchParam: "fullName",
	LabelField:  "fullName",
	DefaultSort: "fullName",
	Columns: []record.Column{
		{Field: "fullName", Label: "Name", Sortable: true, Link: "account"},
		{Field: "phoneNumber", Label: "Phone", Sortable: true},
		{Field: "email", Label: "Email", Sortable: true},
		{Field: "expirationDate", Label: "Expires", Sortable: true},
		{Field: "active", Label: "Active", Sortable: true},
		{Field: "createdDate", Label: "Created", Sortable: true},
		{Field: "lastModifiedDate", Label: "Modified", Sortable: true},
	},
	Schema: schema.Schema{Fields: []schema.Field{
		{Name: "fullName", Label: "Name", Kind: schema.KindText, Presence: &schema.Presence{Message: "Name is required"}},
		{Name: "email", Label: "Email", Kind: schema.KindText,
			Presence: &schema.Presence{Message: "Email is required"},
			Pattern:  &schema.Pattern{Expr: emailPattern, Message: "Email is invalid"},
			Length:   &schema.Length{Max: MaxEmailLength}},
		{Name: "phoneNumber", Label: "Phone", Kind: schema.KindText},
		{Name: "expirationDate", Label: "Expires", Kind: schema.KindDate},
		{Name: "active", Label: "Active", Kind: schema.KindBool},
	}},
	Blank: func() map[string]any {
		return map[string]any{"fullName": "", "email": "", "phoneNumber": "", "expirationDate": nil, "active": false}
	},
}
