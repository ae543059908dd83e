// internal/customer/notification-queue/config.go
package notificationqueue

import (
	"time"

	"franchise-portal/internal/common/config"
)

type Config struct {
	// TTL is how long a notification stays visible unless replaced or dismissed.
	TTL time.Duration
}

func LoadConfig(cfg config.TimingConfig) *Config {
	return &Config{
		TTL: config.GetDuration(cfg.NotificationTTL),
	}
}
