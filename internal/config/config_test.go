package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 5, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 300*time.Second, cfg.AttemptWindow())
	assert.Equal(t, 900*time.Second, cfg.LockoutDuration())
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  listen_addr: ":9090"
database:
  path: /tmp/roach.db
auth:
  bcrypt_cost: 10
  session_ttl: 2h
rate_limit:
  max_attempts: 3
  window_seconds: 60
  lockout_seconds: 120
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "/tmp/roach.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 3, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.AttemptWindow())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  listen_addr: \":7000\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.ListenAddr)
	assert.Equal(t, Default().Database.Path, cfg.Database.Path)
	assert.Equal(t, Default().RateLimit, cfg.RateLimit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 3 }},
		{"bcrypt cost too high", func(c *Config) { c.Auth.BcryptCost = 32 }},
		{"bad session ttl", func(c *Config) { c.Auth.SessionTTL = "soon" }},
		{"zero max attempts", func(c *Config) { c.RateLimit.MaxAttempts = 0 }},
		{"zero window", func(c *Config) { c.RateLimit.WindowSeconds = 0 }},
		{"zero lockout", func(c *Config) { c.RateLimit.LockoutSeconds = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("ROACHTRACK_DB_PATH", "/tmp/env.db")
	t.Setenv("ROACHTRACK_LISTEN_ADDR", ":6060")
	t.Setenv("ROACHTRACK_BCRYPT_COST", "10")
	t.Setenv("ROACHTRACK_SESSION_TTL", "1h")
	t.Setenv("ROACHTRACK_LOG_LEVEL", "warn")

	cfg, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, ":6060", cfg.Server.ListenAddr)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, time.Hour, cfg.SessionTTL())
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadWithEnvRevalidates(t *testing.T) {
	t.Setenv("ROACHTRACK_BCRYPT_COST", "99")
	_, err := LoadWithEnv("")
	assert.Error(t, err)

	t.Setenv("ROACHTRACK_BCRYPT_COST", "not-a-number")
	_, err = LoadWithEnv("")
	assert.Error(t, err)
}
