package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains credential and session configuration
type AuthConfig struct {
	BcryptCost int    `yaml:"bcrypt_cost"`
	SessionTTL string `yaml:"session_ttl"`
}

// RateLimitConfig contains login rate limiting configuration
type RateLimitConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	WindowSeconds  int `yaml:"window_seconds"`
	LockoutSeconds int `yaml:"lockout_seconds"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration used when no file is
// provided.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{ListenAddr: ":8080"},
		Database: DatabaseConfig{Path: "data/roachtrack.db"},
		Auth: AuthConfig{
			BcryptCost: 12,
			SessionTTL: "24h",
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:    5,
			WindowSeconds:  300,
			LockoutSeconds: 900,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}
	if _, err := time.ParseDuration(c.Auth.SessionTTL); err != nil {
		return fmt.Errorf("auth.session_ttl is invalid: %w", err)
	}

	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("rate_limit.max_attempts must be positive")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limit.window_seconds must be positive")
	}
	if c.RateLimit.LockoutSeconds <= 0 {
		return fmt.Errorf("rate_limit.lockout_seconds must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

// SessionTTL returns the session lifetime as a time.Duration.
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.SessionTTL)
	return d
}

// AttemptWindow returns the rate limiter sliding window.
func (c *Config) AttemptWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// LockoutDuration returns the lockout duration.
func (c *Config) LockoutDuration() time.Duration {
	return time.Duration(c.RateLimit.LockoutSeconds) * time.Second
}
