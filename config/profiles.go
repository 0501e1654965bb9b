package config

import (
	"fmt"
	"time"

	"studyquest/adapters/sqlx"
)

// LoadProfile returns the defaults for a named deployment profile.
// Environment variables are not applied; use LoadProfileWithEnv for that.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name

	switch name {
	case "development":
		cfg.Environment = EnvDevelopment
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"

	case "testing":
		cfg.Environment = EnvTesting
		cfg.Scoring.Dispatch = "sync"
		cfg.Logging.Level = "warn"
		cfg.Server.Address = "127.0.0.1:0"
		cfg.Server.ShutdownTimeout = 5 * time.Second

	case "staging":
		cfg.Environment = EnvStaging
		cfg.Storage.Adapter = "sql"
		cfg.Storage.SQL = sqlx.DefaultConfig(sqlx.DriverSQLite)
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true

	case "production":
		cfg.Environment = EnvProduction
		cfg.Server.CORSOrigin = ""
		cfg.Storage.Adapter = "redis"
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
		cfg.Security.RateLimit.RequestsPerMinute = 120
		cfg.Security.RateLimit.BurstSize = 20

	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}

	return cfg, nil
}

// LoadProfileWithEnv loads a profile, applies environment overrides and
// validates the result.
func LoadProfileWithEnv(name string) (*Config, error) {
	cfg, err := LoadProfile(name)
	if err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
