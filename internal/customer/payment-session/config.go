// internal/customer/payment-session/config.go
package paymentsession

import (
	"time"

	"franchise-portal/internal/common/config"
)

type Config struct {
	// Window is the countdown budget in ticks, fixed when a session starts.
	Window  int
	Tick    time.Duration
	Stage   string
	Method  string
	Amount  string
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Window:  cfg.Timing.PaymentWindow,
		Tick:    config.GetDuration(cfg.Timing.TickInterval),
		Stage:   cfg.Payment.Stage,
		Method:  cfg.Payment.Method,
		Amount:  cfg.Payment.Amount,
		Timeout: config.GetDuration(cfg.Portal.RequestTimeout),
	}
}

func (c *Config) applyDefaults() {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.Stage == "" {
		c.Stage = "booking"
	}
	if c.Method == "" {
		c.Method = "qr"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
