// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Portal   PortalConfig   `mapstructure:"portal"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Timing   TimingConfig   `mapstructure:"timing"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// PortalConfig locates the backend endpoints the coordinator consumes.
type PortalConfig struct {
	BaseURL        string          `mapstructure:"base_url"`
	RequestTimeout int             `mapstructure:"request_timeout"` // milliseconds
	Endpoints      EndpointsConfig `mapstructure:"endpoints"`
}

// EndpointsConfig holds path templates; %s is replaced by the customer or application id.
type EndpointsConfig struct {
	CustomerApplication string `mapstructure:"customer_application"`
	Application         string `mapstructure:"application"`
	CustomerEvents      string `mapstructure:"customer_events"`
	BankDetails         string `mapstructure:"bank_details"`
	PaymentNotification string `mapstructure:"payment_notification"`
}

// URL joins the base URL with a path.
func (p PortalConfig) URL(path string) string {
	return p.BaseURL + path
}

// SessionConfig selects where the customer session blob is persisted.
type SessionConfig struct {
	Store     string `mapstructure:"store"` // "file" or "redis"
	Key       string `mapstructure:"key"`
	Dir       string `mapstructure:"dir"`
	LoginPath string `mapstructure:"login_path"`
	TTL       int    `mapstructure:"ttl"` // seconds, redis only; 0 keeps the blob until logout
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StreamConfig controls the push channel consumer.
type StreamConfig struct {
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
}

type ReconnectConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	InitialDelay int  `mapstructure:"initial_delay"` // milliseconds
	MaxDelay     int  `mapstructure:"max_delay"`     // milliseconds
	MaxAttempts  int  `mapstructure:"max_attempts"`
}

// TimingConfig holds the coordinator's fixed windows.
type TimingConfig struct {
	ResyncDelay     int `mapstructure:"resync_delay"`     // milliseconds
	NotificationTTL int `mapstructure:"notification_ttl"` // milliseconds
	PaymentWindow   int `mapstructure:"payment_window"`   // seconds
	TickInterval    int `mapstructure:"tick_interval"`    // milliseconds
}

// PaymentConfig holds the fixed payment-notification request fields.
type PaymentConfig struct {
	Stage  string `mapstructure:"stage"`
	Method string `mapstructure:"method"`
	Amount string `mapstructure:"amount"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig controls the health/metrics listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// String hides the redis password when a config is logged.
func (r RedisConfig) String() string {
	pw := ""
	if r.Password != "" {
		pw = "***"
	}
	return fmt.Sprintf("redis(%s db=%d password=%s)", r.Address, r.DB, pw)
}
