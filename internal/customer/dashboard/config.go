// internal/customer/dashboard/config.go
package dashboard

import (
	"franchise-portal/internal/common/config"
	notificationqueue "franchise-portal/internal/customer/notification-queue"
	paymentsession "franchise-portal/internal/customer/payment-session"
	statuspoller "franchise-portal/internal/customer/status-poller"
	updatedispatcher "franchise-portal/internal/customer/update-dispatcher"
)

// Config bundles the per-component configs the dashboard hands out when it
// activates a customer.
type Config struct {
	Poller        *statuspoller.Config
	Dispatcher    *updatedispatcher.Config
	Notifications *notificationqueue.Config
	Payment       *paymentsession.Config
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Poller:        statuspoller.LoadConfig(cfg.Portal),
		Dispatcher:    updatedispatcher.LoadConfig(cfg.Timing),
		Notifications: notificationqueue.LoadConfig(cfg.Timing),
		Payment:       paymentsession.LoadConfig(cfg),
	}
}

func (c *Config) applyDefaults() {
	if c.Poller == nil {
		c.Poller = &statuspoller.Config{}
	}
	if c.Dispatcher == nil {
		c.Dispatcher = &updatedispatcher.Config{}
	}
	if c.Notifications == nil {
		c.Notifications = &notificationqueue.Config{}
	}
	if c.Payment == nil {
		c.Payment = &paymentsession.Config{}
	}
}
