package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type AppConfig struct {
	// WeatherLink credentials. Missing values are not fatal: every cycle
	// then stores a record without health fields.
	APIKey    string
	APISecret string
	StationID string
	BaseURL   string `validate:"omitempty,url"`

	// PollingInterval is the span of the historic query.
	PollingInterval time.Duration `validate:"gt=0"`
	// ArchiveInterval controls how often a record is collected.
	ArchiveInterval time.Duration `validate:"gt=0"`
	// MaxAge of stored records (0 = never prune).
	MaxAge       time.Duration `validate:"gte=0"`
	HTTPTimeout  time.Duration `validate:"gt=0"`
	CycleTimeout time.Duration `validate:"gt=0"`

	StoreDriver     string `validate:"oneof=memory postgres mysql"`
	StoreDSN        string `validate:"required_unless=StoreDriver memory"`
	StoreTable      string `validate:"required"`
	StoreMaxHistory int    `validate:"gte=0"` // memory store only (0 = unlimited)

	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTTopic    string `validate:"required_with=MQTTBroker"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.APIKey = os.Getenv("WEATHERLINK_API_KEY")
	cfg.APISecret = os.Getenv("WEATHERLINK_API_SECRET")
	cfg.StationID = os.Getenv("WEATHERLINK_STATION_ID")
	cfg.BaseURL = os.Getenv("WEATHERLINK_BASE_URL")

	var err error
	if cfg.PollingInterval, err = getenvSeconds("POLLING_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ArchiveInterval, err = getenvSeconds("ARCHIVE_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvSeconds("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.CycleTimeout, err = getenvSeconds("CYCLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	// Retention: 30 days unless disabled.
	switch v := strings.ToLower(os.Getenv("MAX_AGE")); v {
	case "none", "off", "0":
		cfg.MaxAge = 0
	default:
		if cfg.MaxAge, err = getenvSeconds("MAX_AGE", 2592000*time.Second); err != nil {
			return nil, err
		}
	}

	cfg.StoreDriver = getenvDefault("STORE_DRIVER", "memory")
	cfg.StoreDSN = os.Getenv("STORE_DSN")
	cfg.StoreTable = getenvDefault("STORE_TABLE", "archive")
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 0)

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "station-health")
	cfg.MQTTUsername = os.Getenv("MQTT_USERNAME")
	cfg.MQTTPassword = os.Getenv("MQTT_PASSWORD")
	cfg.MQTTTopic = os.Getenv("MQTT_TOPIC")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// HasCredentials reports whether every WeatherLink credential is set.
func (c *AppConfig) HasCredentials() bool {
	return c.APIKey != "" && c.APISecret != "" && c.StationID != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

// getenvSeconds accepts whole seconds ("60") or a Go duration ("1m").
func getenvSeconds(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
