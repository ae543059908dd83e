// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// expands ${VAR} placeholders and applies defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if !v.IsSet("stream.reconnect.enabled") {
		cfg.Stream.Reconnect.Enabled = true
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Portal.BaseURL == "" {
		if val := os.Getenv("PORTAL_BASE_URL"); val != "" {
			cfg.Portal.BaseURL = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "portal-agent"
	}

	if cfg.Portal.RequestTimeout == 0 {
		cfg.Portal.RequestTimeout = 10000
	}
	ep := &cfg.Portal.Endpoints
	if ep.CustomerApplication == "" {
		ep.CustomerApplication = "/api/customer-application/%s"
	}
	if ep.Application == "" {
		ep.Application = "/api/application/%s"
	}
	if ep.CustomerEvents == "" {
		ep.CustomerEvents = "/api/customer-events/%s"
	}
	if ep.BankDetails == "" {
		ep.BankDetails = "/api/bank-details"
	}
	if ep.PaymentNotification == "" {
		ep.PaymentNotification = "/api/customer-payment-notification"
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = "file"
	}
	if cfg.Session.Key == "" {
		cfg.Session.Key = "customerSession"
	}
	if cfg.Session.Dir == "" {
		cfg.Session.Dir = ".portal"
	}
	if cfg.Session.LoginPath == "" {
		cfg.Session.LoginPath = "/customer-login"
	}

	rc := &cfg.Stream.Reconnect
	if rc.InitialDelay == 0 {
		rc.InitialDelay = 1000
	}
	if rc.MaxDelay == 0 {
		rc.MaxDelay = 30000
	}
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = 10
	}

	if cfg.Timing.ResyncDelay == 0 {
		cfg.Timing.ResyncDelay = 1000
	}
	if cfg.Timing.NotificationTTL == 0 {
		cfg.Timing.NotificationTTL = 5000
	}
	if cfg.Timing.PaymentWindow == 0 {
		cfg.Timing.PaymentWindow = 180
	}
	if cfg.Timing.TickInterval == 0 {
		cfg.Timing.TickInterval = 1000
	}

	if cfg.Payment.Stage == "" {
		cfg.Payment.Stage = "booking"
	}
	if cfg.Payment.Method == "" {
		cfg.Payment.Method = "qr"
	}
	if cfg.Payment.Amount == "" {
		cfg.Payment.Amount = "₹1,000.00"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	switch cfg.Session.Store {
	case "file":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when session.store is redis")
		}
	default:
		return fmt.Errorf("session.store must be file or redis, got %q", cfg.Session.Store)
	}
	if cfg.Timing.PaymentWindow < 0 || cfg.Timing.NotificationTTL < 0 || cfg.Timing.ResyncDelay < 0 {
		return fmt.Errorf("timing values must not be negative")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
