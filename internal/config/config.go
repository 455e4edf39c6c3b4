// Package config loads wdctl settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all wdctl configuration
type Config struct {
	// Hub is the remote end, e.g. a Selenium hub or a driver service.
	HubURL  string        `yaml:"hub_url"`
	Browser string        `yaml:"browser"`
	Timeout time.Duration `yaml:"timeout"`

	//Redis configuration
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	SessionTTL    time.Duration `yaml:"session_ttl"`

	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HubURL:     "http://127.0.0.1:4444/wd/hub",
		Browser:    "firefox",
		Timeout:    60 * time.Second,
		RedisAddr:  "localhost:6379",
		SessionTTL: 1 * time.Hour,
	}
}

// Load reads path when it is not empty, then applies environment overrides.
// A missing file is an error only when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.HubURL = getEnv("WDCTL_HUB_URL", cfg.HubURL)
	cfg.Browser = getEnv("WDCTL_BROWSER", cfg.Browser)
	cfg.Timeout = getEnvAsDuration("WDCTL_TIMEOUT", cfg.Timeout)
	cfg.RedisAddr = getEnv("WDCTL_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("WDCTL_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvAsInt("WDCTL_REDIS_DB", cfg.RedisDB)
	cfg.SessionTTL = getEnvAsDuration("WDCTL_SESSION_TTL", cfg.SessionTTL)
	cfg.MetricsAddr = getEnv("WDCTL_METRICS_ADDR", cfg.MetricsAddr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HubURL == "" {
		return errors.New("hub_url must not be empty")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.SessionTTL < 0 {
		return errors.New("session_ttl must not be negative")
	}
	return nil
}

func getEnv(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return duration
}
