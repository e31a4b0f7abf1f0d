// Package daemon manages the wellness daemon lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/genyouth/wellness/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	API           APIConfig           `toml:"api"`
	Auth          AuthConfig          `toml:"auth"`
	Storage       StorageConfig       `toml:"storage"`
	Catalog       CatalogConfig       `toml:"catalog"`
	Notifications NotificationsConfig `toml:"notifications"`
	Logging       LoggingConfig       `toml:"logging"`
	Telemetry     TelemetryConfig     `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	CORSOrigins    []string `toml:"cors_origins"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`   // 0 disables limiting
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

// AuthConfig selects how /api/me callers are identified.
type AuthConfig struct {
	Provider  string `toml:"provider"` // "header" or "clerk"
	Header    string `toml:"header"`
	SecretKey string `toml:"secret_key,omitempty"`
}

// StorageConfig selects the ledger store.
type StorageConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	DSN    string `toml:"dsn,omitempty"`
}

// CatalogConfig points at an optional TOML or YAML catalog file.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// NotificationsConfig controls the notification policy and push delivery.
type NotificationsConfig struct {
	MaxPerDay      int    `toml:"max_per_day"`
	QuietStart     string `toml:"quiet_start"`
	QuietEnd       string `toml:"quiet_end"`
	FCMCredentials string `toml:"fcm_credentials,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// TelemetryConfig controls the metrics endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// Policy returns the notification policy this config describes.
func (n NotificationsConfig) Policy() domain.NotificationPolicy {
	return domain.NotificationPolicy{
		MaxPerDay:  n.MaxPerDay,
		QuietStart: n.QuietStart,
		QuietEnd:   n.QuietEnd,
	}
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	policy := domain.DefaultNotificationPolicy()
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   5,
			RateLimitBurst: 30,
		},
		Auth: AuthConfig{
			Provider: "header",
			Header:   "X-User-ID",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		Notifications: NotificationsConfig{
			MaxPerDay:  policy.MaxPerDay,
			QuietStart: policy.QuietStart,
			QuietEnd:   policy.QuietEnd,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from $WELLNESS_HOME/config.toml, falling back to
// defaults, then applies environment overrides. A .env file in the working
// directory is loaded first when present.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	path := ConfigPath()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("stat config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("WELLNESS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WELLNESS_PORT: %w", err)
		}
		cfg.API.Port = port
	}
	if v := os.Getenv("CLERK_SECRET_KEY"); v != "" {
		cfg.Auth.SecretKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.Driver = "postgres"
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("FCM_SERVICE_ACCOUNT_JSON"); v != "" {
		cfg.Notifications.FCMCredentials = v
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.API.RateLimitRPS < 0 || (c.API.RateLimitRPS > 0 && c.API.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("api.rate_limit_burst must be positive when rate limiting is on"))
	}
	switch strings.ToLower(c.Auth.Provider) {
	case "header":
		if strings.TrimSpace(c.Auth.Header) == "" {
			errs = append(errs, errors.New("auth.header is required for the header provider"))
		}
	case "clerk":
		if c.Auth.SecretKey == "" {
			errs = append(errs, errors.New("clerk provider needs CLERK_SECRET_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.provider %q: want header or clerk", c.Auth.Provider))
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "sqlite":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q: want sqlite or postgres", c.Storage.Driver))
	}
	if c.Notifications.MaxPerDay < 0 {
		errs = append(errs, errors.New("notifications.max_per_day must not be negative"))
	}
	for _, hm := range []string{c.Notifications.QuietStart, c.Notifications.QuietEnd} {
		if !validHHMM(hm) {
			errs = append(errs, fmt.Errorf("notifications quiet hour %q: want HH:MM", hm))
		}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func validHHMM(s string) bool {
	var h, m int
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || n != 2 {
		return false
	}
	return h >= 0 && h < 24 && m >= 0 && m < 60
}

// SaveConfig writes the config to $WELLNESS_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ConfigPath is the location LoadConfig reads from.
func ConfigPath() string {
	return filepath.Join(WellnessHome(), "config.toml")
}

// WellnessHome returns the data directory, $WELLNESS_HOME or ~/.wellness.
func WellnessHome() string {
	if env := os.Getenv("WELLNESS_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wellness")
}
