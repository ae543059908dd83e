// internal/models/notification.go
package models

import "time"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is the single ephemeral message shown to the customer.
type Notification struct {
	// ID distinguishes successive notifications with identical text.
	ID string `json:"id"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	Severity Severity `json:"severity"`

	// Timestamp is when the notification was shown.
	Timestamp time.Time `json:"timestamp"`
}
