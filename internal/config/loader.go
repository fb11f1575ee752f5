package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment
// variable overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbPath := os.Getenv("ROACHTRACK_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if listenAddr := os.Getenv("ROACHTRACK_LISTEN_ADDR"); listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	if cost := os.Getenv("ROACHTRACK_BCRYPT_COST"); cost != "" {
		v, err := strconv.Atoi(cost)
		if err != nil {
			return nil, fmt.Errorf("ROACHTRACK_BCRYPT_COST is invalid: %w", err)
		}
		cfg.Auth.BcryptCost = v
	}

	if ttl := os.Getenv("ROACHTRACK_SESSION_TTL"); ttl != "" {
		cfg.Auth.SessionTTL = ttl
	}

	if level := os.Getenv("ROACHTRACK_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	// Validate again after env overrides
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after env overrides: %w", err)
	}

	return cfg, nil
}
