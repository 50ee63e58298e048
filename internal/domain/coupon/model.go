package coupon

import (
	"strconv"
	"strings"

	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
	"backoffice/internal/domain/service"
)

// REST paths of the coupon service.
const (
	Resource      = "/marketplace-coupon-service/v1/coupon"
	UsageResource = "/marketplace-coupon-service/v1/coupon-user"
	StoreResource = "/v1/coupon-store"
	UploadPath    = "/marketplace-coupon-service/v1/storage"
)

// MaxAnnotationLength bounds the free-text annotation.
const MaxAnnotationLength = 255

// Coupon is a discount voucher.
// INVARIANT: 0 <= Discount <= 100, Quantity >= 0, Limit >= 0
type Coupon struct {
	ID           record.ID         `json:"id,omitempty"`
	Description  string            `json:"description"`
	Annotation   string            `json:"annotation,omitempty"`
	Image        *record.Image     `json:"image,omitempty"`
	Thumbnail    *record.Image     `json:"thumbnail,omitempty"`
	Discount     float64           `json:"discount"`
	Quantity     int               `json:"quantity"`
	Limit        int               `json:"limit"`
	ExpirationAt record.Timestamp  `json:"expirationAt"`
	Services     []service.Service `json:"services,omitempty"`
	Active       bool              `json:"active"`
	record.Audit
}

// RecordID implements record.Entity.
func (c Coupon) RecordID() record.ID { return c.ID }

// Cells renders the list row.
func (c Coupon) Cells() record.Cells {
	return record.Cells{
		"description":      c.Description,
		"discount":         strconv.FormatFloat(c.Discount, 'f', -1, 64) + "%",
		"quantity":         strconv.Itoa(c.Quantity),
		"limit":            strconv.Itoa(c.Limit),
		"active":           record.YesNo(c.Active),
		"createdDate":      strings.TrimSpace(c.CreatedBy + " " + c.CreatedDate.Format()),
		"lastModifiedDate": strings.TrimSpace(c.LastModifiedBy + " " + c.LastModifiedDate.Format()),
	}
}

// Store is a shop where the coupon can be redeemed.
type Store struct {
	ID           record.ID        `json:"id,omitempty"`
	Store        *Shop            `json:"store,omitempty"`
	ExpirationAt record.Timestamp `json:"expirationAt"`
}

// Shop is the minimal store profile embedded in coupon sub-lists.
type Shop struct {
	ID       record.ID `json:"id,omitempty"`
	FullName string    `json:"fullName"`
}

// RecordID implements record.Entity.
func (s Store) RecordID() record.ID { return s.ID }

// Cells renders the sub-list row.
func (s Store) Cells() record.Cells {
	name := ""
	if s.Store != nil {
		name = s.Store.FullName
	}
	return record.Cells{"store": name, "expirationAt": s.ExpirationAt.FormatDate()}
}

// Usage is one issued code and where it was redeemed.
type Usage struct {
	ID    record.ID `json:"id,omitempty"`
	Code  string    `json:"code"`
	Store *Shop     `json:"store,omitempty"`
}

// RecordID implements record.Entity.
func (u Usage) RecordID() record.ID { return u.ID }

// Cells renders the sub-list row. Codes not yet redeemed show as pending.
func (u Usage) Cells() record.Cells {
	store := "awaiting use"
	if u.Store != nil {
		store = u.Store.FullName
	}
	return record.Cells{"code": u.Code, "store": store}
}

// Definition describes coupons to the console.
var Definition = record.Definition{
	Name:        "coupon",
	Title:       "Coupons",
	Singular:    "Coupon",
	Resource:    Resource,
	SearchParam: "description",
	LabelField:  "description",
	DefaultSort: "description",
	Columns: []record.Column{
		{Field: "description", Label: "Description", Sortable: true, Link: "coupon"},
		{Field: "discount", Label: "Discount", Sortable: true},
		{Field: "quantity", Label: "Quantity", Sortable: true},
		{Field: "limit", Label: "Limit", Sortable: true},
		{Field: "active", Label: "Active", Sortable: true},
		{Field: "createdDate", Label: "Created", Sortable: true},
		{Field: "lastModifiedDate", Label: "Modified", Sortable: true},
	},
	Schema: schema.Schema{Fields: []schema.Field{
		{Name: "description", Label: "Description", Kind: schema.KindText, Presence: &schema.Presence{Message: "Description is required"}},
		{Name: "annotation", Label: "Annotation", Kind: schema.KindLongText, Length: &schema.Length{Max: MaxAnnotationLength}},
		{Name: "expirationAt", Label: "Expires at", Kind: schema.KindDate, Presence: &schema.Presence{Message: "Expiration date is required"}},
		{Name: "quantity", Label: "Quantity", Kind: schema.KindNumber, Range: &schema.Range{Min: schema.Bound(0)}},
		{Name: "limit", Label: "Usage limit", Kind: schema.KindNumber, Range: &schema.Range{Min: schema.Bound(0)}},
		{Name: "discount", Label: "Discount %", Kind: schema.KindNumber,
			Range: &schema.Range{Min: schema.Bound(0), Max: schema.Bound(100), Message: "Discount must be between 0 and 100"}},
		{Name: "services", Label: "Services", Kind: schema.KindRelation, Relation: schema.RelationMany, Search: "service"},
		{Name: "thumbnail", Label: "Thumbnail", Kind: schema.KindImage, Relation: schema.RelationFile},
		{Name: "image", Label: "Image", Kind: schema.KindImage, Relation: schema.RelationFile},
		{Name: "active", Label: "Active", Kind: schema.KindBool},
	}},
	Blank: func() map[string]any {
		return map[string]any{
			"description":  "",
			"image":        nil,
			"thumbnail":    nil,
			"annotation":   "",
			"discount":     0.0,
			"quantity":     0.0,
			"limit":        0.0,
			"expirationAt": nil,
			"active":       false,
		}
	},
}
