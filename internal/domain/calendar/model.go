package calendar

import (
	"encoding/json"
	"slices"
	"time"

	"backoffice/internal/domain/cooperator"
	"backoffice/internal/domain/place"
	"backoffice/internal/domain/record"
	"backoffice/internal/domain/schema"
	"backoffice/internal/domain/service"
)

// Resource is the REST collection for calendars.
const Resource = "/v1/calendar"

// Slot is one bookable time inside a calendar day.
type Slot struct {
	ID   record.ID        `json:"id,omitempty"`
	Date record.Timestamp `json:"date"`
}

// Clock renders the slot's time of day (HH:mm).
func (s Slot) Clock() string {
	if s.Date.IsZero() {
		return ""
	}
	return s.Date.Local().Format("15:04")
}

// SlotsOf decodes the "times" value of an open calendar form, ordered by time.
// A value that does not decode yields no slots.
func SlotsOf(v any) []Slot {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var slots []Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil
	}
	slices.SortStableFunc(slots, func(a, b Slot) int { return a.Date.Compare(b.Date.Time) })
	return slots
}

// Calendar offers a service by a cooperator at a place on a given date.
// INVARIANT: Price is never negative once saved by the backend.
type Calendar struct {
	ID         record.ID              `json:"id,omitempty"`
	Place      *place.Place           `json:"place,omitempty"`
	Cooperator *cooperator.Cooperator `json:"cooperator,omitempty"`
	Service    *service.Service       `json:"service,omitempty"`
	Date       record.Timestamp       `json:"date"`
	Price      float64                `json:"price"`
	Exception  bool                   `json:"exception"`
	Active     bool                   `json:"active"`
	Times      []Slot                 `json:"times,omitempty"`
	record.Audit
}

// RecordID implements record.Entity.
func (c Calendar) RecordID() record.ID { return c.ID }

// Cells renders the list row.
func (c Calendar) Cells() record.Cells {
	cells := record.Cells{
		"price":  record.Money(c.Price),
		"date":   c.Date.FormatDate(),
		"active": record.YesNo(c.Active),
	}
	if c.Place != nil {
		cells["place"] = c.Place.FullName
	}
	if c.Service != nil {
		cells["service"] = c.Service.Description
		if c.Service.Type != nil {
			cells["serviceType"] = c.Service.Type.Description
		}
	}
	if c.Cooperator != nil {
		cells["cooperator"] = c.Cooperator.FullName
		cells["register"] = c.Cooperator.Register
	}
	return cells
}

// Definition describes calendars to the console.
var Definition = record.Definition{
	Name:        "calendar",
	Title:       "Calendars",
	Singular:    "Calendar",
	Resource:    Resource,
	DefaultSort: "date",
	Columns: []record.Column{
		{Field: "place", Label: "Place", Sortable: true, Link: "calendar"},
		{Field: "service", Label: "Service", Sortable: true},
		{Field: "cooperator", Label: "Cooperator", Sortable: true},
		{Field: "price", Label: "Price", Sortable: true},
		{Field: "date", Label: "Date", Sortable: true},
		{Field: "active", Label: "Active", Sortable: true},
	},
	Schema: schema.Schema{Fields: []schema.Field{
		{Name: "place", Label: "Place", Kind: schema.KindRelation, Relation: schema.RelationOne, Search: "place",
			Presence: &schema.Presence{Message: "Place is required"}},
		{Name: "cooperator", Label: "Cooperator", Kind: schema.KindRelation, Relation: schema.RelationOne, Search: "cooperator",
			Presence: &schema.Presence{Message: "Cooperator is required"}},
		{Name: "service", Label: "Service", Kind: schema.KindRelation, Relation: schema.RelationOne, Search: "service",
			Presence: &schema.Presence{Message: "Service is required"}},
		{Name: "date", Label: "Date", Kind: schema.KindDate, Presence: &schema.Presence{Message: "Date is required"}},
		{Name: "price", Label: "Price", Kind: schema.KindMoney, Presence: &schema.Presence{Message: "Price is required"},
			Range: &schema.Range{Min: schema.Bound(0)}},
		{Name: "exception", Label: "Exception", Kind: schema.KindBool},
		{Name: "active", Label: "Active", Kind: schema.KindBool},
	}},
	Blank: func() map[string]any {
		return map[string]any{
			"place":      nil,
			"cooperator": nil,
			"service":    nil,
			"date":       time.Now().Format("2006-01-02"),
			"price":      0.0,
			"exception":  false,
			"active":     false,
			"times":      []any{},
		}
	},
}
