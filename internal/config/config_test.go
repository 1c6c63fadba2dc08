package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		KBPath:         "kb.json",
		MatchThreshold: 0.7,
		Unsplash: UnsplashConfig{
			BaseURL:   DefaultUnsplashBaseURL,
			AccessKey: "sk-test-access-key-12345",
			TimeoutMS: DefaultUnsplashTimeoutMS,
		},
		ServeAddr: DefaultServeAddr,
		RateBurst: DefaultRateBurst,
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "empty kb path",
			mutate:  func(c *Config) { c.KBPath = "" },
			wantErr: ErrInvalidKBPath,
		},
		{
			name:    "threshold below zero",
			mutate:  func(c *Config) { c.MatchThreshold = -0.1 },
			wantErr: ErrInvalidThreshold,
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.MatchThreshold = 1.5 },
			wantErr: ErrInvalidThreshold,
		},
		{
			name:   "threshold boundary zero",
			mutate: func(c *Config) { c.MatchThreshold = 0 },
		},
		{
			name:   "threshold boundary one",
			mutate: func(c *Config) { c.MatchThreshold = 1 },
		},
		{
			name:    "timeout too small",
			mutate:  func(c *Config) { c.Unsplash.TimeoutMS = 50 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "timeout too large",
			mutate:  func(c *Config) { c.Unsplash.TimeoutMS = 500000 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "addr without port",
			mutate:  func(c *Config) { c.ServeAddr = "localhost" },
			wantErr: ErrInvalidAddr,
		},
		{
			name:    "addr with bad port",
			mutate:  func(c *Config) { c.ServeAddr = "localhost:99999" },
			wantErr: ErrInvalidAddr,
		},
		{
			name:    "zero rate burst",
			mutate:  func(c *Config) { c.RateBurst = 0 },
			wantErr: ErrInvalidRateBurst,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{name: "empty", secret: "", want: ""},
		{name: "short fully masked", secret: "abc12345", want: maskedValue},
		{name: "long shows edges", secret: "sk-abcdefghij-99", want: "sk<" + maskedValue + ">99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, maskSecret(tt.secret))
		})
	}
}

func TestConfig_MarshalJSON_MasksAccessKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	assert.NotContains(t, string(data), cfg.Unsplash.AccessKey)
	assert.Contains(t, string(data), maskedValue)

	// Non-sensitive fields survive untouched.
	assert.Contains(t, string(data), "kb.json")
	assert.Contains(t, string(data), DefaultUnsplashBaseURL)
}

func TestConfig_String_MasksAccessKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	s := cfg.String()

	assert.False(t, strings.Contains(s, cfg.Unsplash.AccessKey),
		"String() must not leak the access key")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // no config file in sight
	t.Setenv("UNSPLASH_ACCESS_KEY", "")

	cwd := t.TempDir()
	t.Chdir(cwd)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultKBPath, cfg.KBPath)
	assert.False(t, cfg.KBCreate)
	assert.InDelta(t, DefaultMatchThreshold, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, DefaultUnsplashBaseURL, cfg.Unsplash.BaseURL)
	assert.Equal(t, DefaultUnsplashTimeoutMS, cfg.Unsplash.TimeoutMS)
	assert.Equal(t, DefaultServeAddr, cfg.ServeAddr)
	assert.Equal(t, DefaultRateBurst, cfg.RateBurst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("UNSPLASH_ACCESS_KEY", "env-access-key")
	t.Setenv("CHATBOT_KB_PATH", "custom/kb.json")
	t.Setenv("CHATBOT_KB_CREATE", "true")
	t.Setenv("CHATBOT_MATCH_THRESHOLD", "0.85")
	t.Setenv("CHATBOT_SERVE_ADDR", "127.0.0.1:8080")

	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custom/kb.json", cfg.KBPath)
	assert.True(t, cfg.KBCreate)
	assert.InDelta(t, 0.85, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, "env-access-key", cfg.Unsplash.AccessKey)
	assert.Equal(t, "127.0.0.1:8080", cfg.ServeAddr)
}
