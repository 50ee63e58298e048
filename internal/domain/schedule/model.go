package schedule

import (
	"backoffice/internal/domain/account"
	"backoffice/internal/domain/calendar"
	"backoffice/internal/domain/record"
)

// Resource is the REST collection for bookings.
const Resource = "/v1/schedule"

// Status values reported by the backend.
const (
	StatusScheduled = "SCHEDULED"
	StatusCanceled  = "CANCELED"
	StatusDone      = "DONE"
)

// MaxRating is the top of the review scale.
const MaxRating = 5

// CalendarTime is the booked slot together with its calendar.
type CalendarTime struct {
	ID       record.ID          `json:"id,omitempty"`
	Date     record.Timestamp   `json:"date"`
	Calendar *calendar.Calendar `json:"calendar,omitempty"`
}

// Schedule is a customer booking of a calendar slot. Read-only from the console.
type Schedule struct {
	ID           record.ID        `json:"id,omitempty"`
	Account      *account.Account `json:"account,omitempty"`
	CalendarTime *CalendarTime    `json:"calendarTime,omitempty"`
	Status       string           `json:"status"`
	Price        float64          `json:"price"`
	Rating       int              `json:"rating"`
	record.Audit
}

// RecordID implements record.Entity.
func (s Schedule) RecordID() record.ID { return s.ID }

// Cells renders the list row.
func (s Schedule) Cells() record.Cells {
	cells := record.Cells{
		"status": s.Status,
		"price":  record.Money(s.Price),
		"rating": Stars(s.Rating),
	}
	if s.Account != nil {
		cells["account"] = s.Account.FullName
	}
	if ct := s.CalendarTime; ct != nil {
		cells["date"] = ct.Date.Local().Format("02/01/2006 15:04")
		if ct.Date.IsZero() {
			cells["date"] = ""
		}
		if c := ct.Calendar; c != nil {
			if c.Service != nil {
				cells["service"] = c.Service.Description
			}
			if c.Cooperator != nil {
				cells["cooperator"] = c.Cooperator.FullName
			}
		}
	}
	return cells
}

// Stars renders a rating as filled and empty stars, clamped to the scale.
func Stars(rating int) string {
	rating = max(0, min(rating, MaxRating))
	out := make([]rune, 0, MaxRating)
	for i := 0; i < MaxRating; i++ {
		if i < rating {
			out = append(out, '★')
		} else {
			out = append(out, '☆')
		}
	}
	return string(out)
}

// Definition describes schedules to the console.
var Definition = record.Definition{
	Name:        "schedule",
	Title:       "Schedules",
	Singular:    "Schedule",
	Resource:    Resource,
	DefaultSort: "createdDate",
	ReadOnly:    true,
	Columns: []record.Column{
		{Field: "account", Label: "Customer"},
		{Field: "service", Label: "Service"},
		{Field: "cooperator", Label: "Cooperator"},
		{Field: "status", Label: "Status", Sortable: true},
		{Field: "price", Label: "Price"},
		{Field: "date", Label: "Date"},
		{Field: "rating", Label: "Rating"},
		{Field: "createdDate", Label: "Created", Sortable: true},
	},
}
