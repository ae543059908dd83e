// internal/customer/update-dispatcher/models.go
package updatedispatcher

import (
	"time"

	"franchise-portal/internal/models"
)

const DefaultResyncDelay = time.Second

const fallbackAppointmentMessage = "You have a new appointment update."

// Notice is a notification the caller should show.
type Notice struct {
	Message  string
	Severity models.Severity
}

// Effect is what one event asks of the dashboard.
type Effect struct {
	Notify *Notice

	// Resync requests a re-fetch of the application after ResyncDelay.
	Resync      bool
	ResyncDelay time.Duration
}

// Name labels the effect for metrics and logs.
func (e Effect) Name() string {
	switch {
	case e.Notify != nil && e.Resync:
		return "notify+resync"
	case e.Notify != nil:
		return "notify"
	case e.Resync:
		return "resync"
	}
	return "none"
}
