// internal/customer/session-guard/config.go
package sessionguard

import (
	"time"

	"franchise-portal/internal/common/config"
)

type Config struct {
	Key       string
	LoginPath string
	TTL       time.Duration
}

func LoadConfig(cfg config.SessionConfig) *Config {
	return &Config{
		Key:       cfg.Key,
		LoginPath: cfg.LoginPath,
		TTL:       time.Duration(cfg.TTL) * time.Second,
	}
}
