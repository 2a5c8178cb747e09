package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendFirebase = "firebase"
)

// Config holds all configuration for the application.
type Config struct {
	Env           string `mapstructure:"TRAVEL_ENV"`
	Backend       string `mapstructure:"BACKEND"`
	BackendDomain string `mapstructure:"BACKEND_DOMAIN"`
	BackendScheme string `mapstructure:"BACKEND_SCHEME"`

	FirebaseAPIKey                   string `mapstructure:"FIREBASE_API_KEY"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseDatabaseURL              string `mapstructure:"FIREBASE_DATABASE_URL"`
	FirebaseStorageBucket            string `mapstructure:"FIREBASE_STORAGE_BUCKET"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	LocalCachePath string        `mapstructure:"LOCAL_CACHE_PATH"`
	LocalCacheKey  string        `mapstructure:"LOCAL_CACHE_KEY"` // Base64 encoded
	TokenSecret    string        `mapstructure:"TOKEN_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`

	Port          string        `mapstructure:"PORT"`
	ClientURL     string        `mapstructure:"CLIENT_URL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	ShareCacheTTL time.Duration `mapstructure:"SHARE_CACHE_TTL"`

	QRScale int `mapstructure:"QR_SCALE"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`
}

var keys = []string{
	"TRAVEL_ENV", "BACKEND", "BACKEND_DOMAIN", "BACKEND_SCHEME",
	"FIREBASE_API_KEY", "FIREBASE_PROJECT_ID", "FIREBASE_DATABASE_URL", "FIREBASE_STORAGE_BUCKET",
	"GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"LOCAL_CACHE_PATH", "LOCAL_CACHE_KEY", "TOKEN_SECRET", "TOKEN_TTL",
	"PORT", "CLIENT_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "SHARE_CACHE_TTL",
	"QR_SCALE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM",
}

// LoadConfig loads configuration from environment variables using Viper. When
// TRAVEL_CONFIG names a yaml or json file it is read first; environment
// variables still take precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	v.SetDefault("TRAVEL_ENV", "development")
	v.SetDefault("BACKEND", BackendMemory)
	v.SetDefault("BACKEND_DOMAIN", "online-travel-server.herokuapp.com")
	v.SetDefault("BACKEND_SCHEME", "http")
	v.SetDefault("LOCAL_CACHE_PATH", "onlinetravel.cache.json")
	v.SetDefault("TOKEN_TTL", "1h")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SHARE_CACHE_TTL", "5m")
	v.SetDefault("QR_SCALE", 8)
	v.SetDefault("SMTP_PORT", "587")

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if path := v.GetString("TRAVEL_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings required by the selected backend.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendFirebase:
		if c.FirebaseAPIKey == "" {
			return errors.New("FIREBASE_API_KEY is required for the firebase backend")
		}
		if c.FirebaseDatabaseURL == "" {
			return errors.New("FIREBASE_DATABASE_URL is required for the firebase backend")
		}
		if c.FirebaseStorageBucket == "" {
			return errors.New("FIREBASE_STORAGE_BUCKET is required for the firebase backend")
		}
	default:
		return fmt.Errorf("BACKEND must be %q or %q, got %q", BackendMemory, BackendFirebase, c.Backend)
	}
	if c.BackendDomain == "" {
		return errors.New("BACKEND_DOMAIN is required")
	}
	if c.QRScale < 1 {
		return fmt.Errorf("QR_SCALE must be positive, got %d", c.QRScale)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// IsProduction reports whether TRAVEL_ENV selects production logging and gin release mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// BackendURL is the scheme and host share urls are built on.
func (c *Config) BackendURL() string {
	return c.BackendScheme + "://" + c.BackendDomain
}

// RedisEnabled reports whether the share cache should use Redis instead of process memory.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// SMTPEnabled reports whether email sharing is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
