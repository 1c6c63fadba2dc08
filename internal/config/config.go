// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. A local .env file (loaded best-effort via godotenv)
//  3. Config file (~/.chatbot101/config.yaml, or ./config.yaml)
//  4. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Knowledge base: file path for the persisted question/answer store
//   - Matching: fuzzy-match acceptance threshold
//   - Unsplash: image search collaborator (base URL, access key, timeout)
//   - Serve: HTTP transport address and rate limiting
//
// Security: the Unsplash access key is never logged; it is masked in
// MarshalJSON and String. Validation is fail-fast with sentinel errors
// checkable via errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidThreshold indicates the match threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("invalid match threshold")

	// ErrInvalidKBPath indicates the knowledge base path is empty.
	ErrInvalidKBPath = errors.New("invalid knowledge base path")

	// ErrInvalidTimeout indicates the Unsplash timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid unsplash timeout")

	// ErrInvalidAddr indicates the serve address is not host:port.
	ErrInvalidAddr = errors.New("invalid serve address")

	// ErrInvalidRateBurst indicates the rate limiter burst is not positive.
	ErrInvalidRateBurst = errors.New("invalid rate burst")
)

// Defaults and bounds for configuration values.
const (
	// DefaultKBPath is the default knowledge base file, matching the
	// kb.json document the bot reads and writes.
	DefaultKBPath = "kb.json"

	// DefaultMatchThreshold is the fuzzy-match acceptance threshold.
	// A policy constant, not a derived value; tune via match_threshold.
	DefaultMatchThreshold = 0.7

	// DefaultUnsplashBaseURL is the Unsplash API endpoint.
	DefaultUnsplashBaseURL = "https://api.unsplash.com"

	// DefaultUnsplashTimeoutMS bounds each image service call.
	DefaultUnsplashTimeoutMS = 10000

	// MinUnsplashTimeoutMS and MaxUnsplashTimeoutMS bound the configurable
	// collaborator timeout.
	MinUnsplashTimeoutMS = 100
	MaxUnsplashTimeoutMS = 120000

	// DefaultServeAddr is the default HTTP transport address.
	DefaultServeAddr = "127.0.0.1:3400"

	// DefaultRateBurst is the per-IP rate limiter burst for serve mode.
	DefaultRateBurst = 30
)

// UnsplashConfig holds image service collaborator settings.
type UnsplashConfig struct {
	BaseURL   string `mapstructure:"base_url" json:"base_url"`
	AccessKey string `mapstructure:"access_key" json:"access_key"` // SENSITIVE: masked in MarshalJSON
	TimeoutMS int    `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (API keys, tokens), update MarshalJSON.
type Config struct {
	// Knowledge base file path
	KBPath string `mapstructure:"kb_path" json:"kb_path"`

	// Create an empty knowledge base when the file is missing. Off by
	// default: a missing file is a fatal startup error.
	KBCreate bool `mapstructure:"kb_create" json:"kb_create"`

	// Fuzzy-match acceptance threshold on a 0-1 scale
	MatchThreshold float64 `mapstructure:"match_threshold" json:"match_threshold"`

	// Image service collaborator
	Unsplash UnsplashConfig `mapstructure:"unsplash" json:"unsplash"`

	// HTTP transport (serve mode only)
	ServeAddr string `mapstructure:"serve_addr" json:"serve_addr"`
	RateBurst int    `mapstructure:"rate_burst" json:"rate_burst"`
}

// Load loads configuration.
// Priority: Environment variables > .env file > config file > defaults.
func Load() (*Config, error) {
	// Best-effort .env load so UNSPLASH_ACCESS_KEY can live next to the
	// binary during development. A missing .env is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()

	// Configuration directory: ~/.chatbot101/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".chatbot101")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	// Read configuration file (if exists)
	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("kb_path", DefaultKBPath)
	v.SetDefault("kb_create", false)
	v.SetDefault("match_threshold", DefaultMatchThreshold)

	v.SetDefault("unsplash.base_url", DefaultUnsplashBaseURL)
	v.SetDefault("unsplash.timeout_ms", DefaultUnsplashTimeoutMS)

	v.SetDefault("serve_addr", DefaultServeAddr)
	v.SetDefault("rate_burst", DefaultRateBurst)
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	// Unsplash access key (the only secret)
	mustBind("unsplash.access_key", "UNSPLASH_ACCESS_KEY")

	// Runtime overrides
	mustBind("kb_path", "CHATBOT_KB_PATH")
	mustBind("kb_create", "CHATBOT_KB_CREATE")
	mustBind("match_threshold", "CHATBOT_MATCH_THRESHOLD")
	mustBind("serve_addr", "CHATBOT_SERVE_ADDR")
	mustBind("rate_burst", "CHATBOT_RATE_BURST")
}

// Validate checks all configuration values and returns the first problem
// found, wrapped around the matching sentinel error.
func (c *Config) Validate() error {
	if c.KBPath == "" {
		return ErrInvalidKBPath
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("%w: %v not in [0, 1]", ErrInvalidThreshold, c.MatchThreshold)
	}
	if c.Unsplash.TimeoutMS < MinUnsplashTimeoutMS || c.Unsplash.TimeoutMS > MaxUnsplashTimeoutMS {
		return fmt.Errorf("%w: %dms not in [%d, %d]",
			ErrInvalidTimeout, c.Unsplash.TimeoutMS, MinUnsplashTimeoutMS, MaxUnsplashTimeoutMS)
	}
	if err := validateAddr(c.ServeAddr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddr, err)
	}
	if c.RateBurst <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRateBurst, c.RateBurst)
	}
	return nil
}

// validateAddr validates a host:port address.
func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("must be in host:port format: %w", err)
	}
	if port == "" {
		return errors.New("port is required")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be numeric: %w", err)
	}
	if portNum < 0 || portNum > 65535 {
		return fmt.Errorf("port must be 0-65535 (0 = auto-assign), got %d", portNum)
	}
	return nil
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked; longer secrets show
// the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - Unsplash.AccessKey
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.Unsplash.AccessKey = maskSecret(a.Unsplash.AccessKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
