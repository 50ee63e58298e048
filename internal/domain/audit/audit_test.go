package audit

import "testing"

// TestNewEvent verifies builder defaults and chaining.
func TestNewEvent(t *testing.T) {
	e := NewEvent("ana@example.com", "ADMIN", CategoryRecord, ActionUpdate).
		WithResource("place", "42").
		WithDescription("updated place").
		WithSeverity(SeverityWarning)

	if e.ID == "" || e.Timestamp.IsZero() {
		t.Fatal("expected id and timestamp to be set")
	}
	if e.ResourceType != "place" || e.ResourceID != "42" || e.Severity != SeverityWarning {
		t.Errorf("unexpected event %+v", e)
	}
	if other := NewEvent("a", "b", CategorySession, ActionLogin); other.ID == e.ID {
		t.Error("expected unique ids")
	}
}
