// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIEndpoint is the base URL of the YouTube Data API.
const DefaultAPIEndpoint = "https://www.googleapis.com/"

// Config holds all application configuration for the comments widget and its hosts.
type Config struct {
	// ListenAddr is the address the HTTP server binds to (default: ":8080")
	ListenAddr string `json:"listen_addr"`
	// APIEndpoint is the base URL of the YouTube Data API
	APIEndpoint string `json:"api_endpoint"`
	// RequestTimeout bounds a single comment fetch (0 = rely on the network stack)
	RequestTimeout time.Duration `json:"request_timeout"`
	// UserAgent is sent with every outbound request
	UserAgent string `json:"user_agent"`

	// SettingsPath is the JSON file holding admin settings (the default API key)
	SettingsPath string `json:"settings_path"`
	// AdminToken guards the settings endpoints; empty disables them
	AdminToken string `json:"admin_token"`

	// DateLocation is the IANA time zone used to format comment dates
	DateLocation string `json:"date_location"`

	// RateLimitRPS is the per-client request rate for the HTTP server (0 = unlimited)
	RateLimitRPS float64 `json:"rate_limit_rps"`
	// RateLimitBurst is the per-client burst size
	RateLimitBurst int `json:"rate_limit_burst"`
	// AllowedOrigins lists origins allowed to embed the widget endpoints
	AllowedOrigins []string `json:"allowed_origins"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     ":8080",
		APIEndpoint:    DefaultAPIEndpoint,
		RequestTimeout: 0,
		UserAgent:      "ytcomments/1.1",
		SettingsPath:   filepath.Join(os.Getenv("HOME"), ".config", "ytcomments", "settings.json"),
		DateLocation:   "UTC",
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		AllowedOrigins: []string{"*"},
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytcomments.json in current directory or home directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytcomments.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytcomments", "ytcomments.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTCOMMENTS_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("YTCOMMENTS_API_ENDPOINT"); v != "" {
		c.APIEndpoint = v
	}
	if v := os.Getenv("YTCOMMENTS_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("YTCOMMENTS_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("YTCOMMENTS_SETTINGS_PATH"); v != "" {
		c.SettingsPath = v
	}
	if v := os.Getenv("YTCOMMENTS_ADMIN_TOKEN"); v != "" {
		c.AdminToken = v
	}
	if v := os.Getenv("YTCOMMENTS_DATE_LOCATION"); v != "" {
		c.DateLocation = v
	}
	if v := os.Getenv("YTCOMMENTS_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimitRPS = f
		}
	}
	if v := os.Getenv("YTCOMMENTS_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimitBurst = n
		}
	}
	if v := os.Getenv("YTCOMMENTS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.APIEndpoint == "" {
		return fmt.Errorf("api_endpoint must not be empty")
	}
	if !strings.HasPrefix(c.APIEndpoint, "http://") && !strings.HasPrefix(c.APIEndpoint, "https://") {
		return fmt.Errorf("api_endpoint must be an http(s) URL")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be non-negative")
	}
	if c.SettingsPath == "" {
		return fmt.Errorf("settings_path must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must be non-negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate_limit_burst must be positive when rate limiting is enabled")
	}
	return nil
}

// Location resolves DateLocation into a time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DateLocation)
	if err != nil {
		return nil, fmt.Errorf("date_location %q: %w", c.DateLocation, err)
	}
	return loc, nil
}
