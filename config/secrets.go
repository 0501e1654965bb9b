package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSecretNotFound is returned when a secret has no value.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore resolves secrets by key.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
}

// EnvironmentSecretStore reads secrets from environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore { return &EnvironmentSecretStore{} }

func (EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%s: %w", key, ErrSecretNotFound)
	}
	return v, nil
}

// GetWithDefault returns def when key is unset.
func (s EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	v, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	return v
}

// Secret environment variables.
const (
	SecretSQLDSN        = "STUDYQUEST_SQL_DSN"
	SecretRedisPassword = "STUDYQUEST_REDIS_PASSWORD"
	SecretAPIKeys       = "STUDYQUEST_API_KEYS"
	SecretWebhookSecret = "STUDYQUEST_WEBHOOK_SECRET"
)

// LoadSecrets fills credentials from store. Missing secrets keep the
// configured value.
func (c *Config) LoadSecrets(ctx context.Context, store SecretStore) error {
	get := func(key string) (string, bool, error) {
		v, err := store.Get(ctx, key)
		if errors.Is(err, ErrSecretNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return v, true, nil
	}

	if v, ok, err := get(SecretSQLDSN); err != nil {
		return err
	} else if ok {
		c.Storage.SQL.DSN = v
	}
	if v, ok, err := get(SecretRedisPassword); err != nil {
		return err
	} else if ok {
		c.Storage.Redis.Password = v
	}
	if v, ok, err := get(SecretAPIKeys); err != nil {
		return err
	} else if ok {
		keys := make([]string, 0)
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		c.Security.APIKeys = keys
	}
	if v, ok, err := get(SecretWebhookSecret); err != nil {
		return err
	} else if ok {
		c.Webhooks.Secret = v
	}
	return nil
}

// LoadSecretsFromEnv loads secrets from environment variables.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	return c.LoadSecrets(ctx, NewEnvironmentSecretStore())
}
