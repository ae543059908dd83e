// internal/customer/notification-queue/models.go
package notificationqueue

import (
	"time"

	"franchise-portal/internal/models"
)

const DefaultTTL = 5 * time.Second

// Listener observes visibility changes; n is nil when nothing is visible.
type Listener func(n *models.Notification)
