// internal/models/event.go
package models

// EventType tags a pushed RealtimeEvent.
type EventType string

const (
	EventStatusUpdate EventType = "statusUpdate"
	EventAppointment  EventType = "appointment"
)

// RealtimeEvent is one message from the customer event stream. Only the
// fields relevant to its Type are populated; it is consumed once and never stored.
type RealtimeEvent struct {
	Type    EventType `json:"type"`
	Status  string    `json:"status,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Known reports whether the dispatcher has a mapping for the event type.
func (e RealtimeEvent) Known() bool {
	return e.Type == EventStatusUpdate || e.Type == EventAppointment
}
