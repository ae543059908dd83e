// internal/customer/event-stream/config.go
package eventstream

import (
	"time"

	"franchise-portal/internal/common/config"
)

type Config struct {
	Reconnect    bool
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

func LoadConfig(cfg config.StreamConfig) *Config {
	return &Config{
		Reconnect:    cfg.Reconnect.Enabled,
		InitialDelay: config.GetDuration(cfg.Reconnect.InitialDelay),
		MaxDelay:     config.GetDuration(cfg.Reconnect.MaxDelay),
		MaxAttempts:  cfg.Reconnect.MaxAttempts,
	}
}

// Backoff returns the wait before reconnect attempt n (0-based).
func (c *Config) Backoff(n int) time.Duration {
	d := c.InitialDelay
	if d <= 0 {
		d = time.Second
	}
	for i := 0; i < n; i++ {
		d *= 2
		if c.MaxDelay > 0 && d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}
