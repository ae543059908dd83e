// internal/customer/status-poller/config.go
package statuspoller

import (
	"time"

	"franchise-portal/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg config.PortalConfig) *Config {
	return &Config{
		Timeout: config.GetDuration(cfg.RequestTimeout),
	}
}
