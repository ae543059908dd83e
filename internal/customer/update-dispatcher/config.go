// internal/customer/update-dispatcher/config.go
package updatedispatcher

import (
	"time"

	"franchise-portal/internal/common/config"
)

type Config struct {
	// ResyncDelay lets the backend finish its write before we re-fetch.
	ResyncDelay time.Duration
}

func LoadConfig(cfg config.TimingConfig) *Config {
	return &Config{
		ResyncDelay: config.GetDuration(cfg.ResyncDelay),
	}
}
