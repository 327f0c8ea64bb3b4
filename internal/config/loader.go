package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	envPrefix     = "DECK_"
	envConfigFile = "DECK_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DECK_CONFIG is set
//  3. env (prefix DECK_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// DECK_SESSION_TTL -> session_ttl. DECK_PUBLIC_PATHS is a comma list.
	// DECK_METRICS_REFRESH_INTERVAL -> metrics.refresh_interval.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		switch {
		case key == "config":
			return "", nil
		case key == "public_paths":
			return key, splitList(value)
		case strings.HasPrefix(key, "metrics_"):
			key = "metrics." + strings.TrimPrefix(key, "metrics_")
			if key == "metrics.buckets" {
				return key, splitList(value)
			}
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants the rest of the service relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.CookieName) == "":
		return fmt.Errorf("%w: cookie_name must not be empty", ErrInvalidConfig)
	case !strings.HasPrefix(c.GatePath, "/") || !strings.HasPrefix(c.VerifyPath, "/"):
		return fmt.Errorf("%w: gate_path and verify_path must be absolute", ErrInvalidConfig)
	case c.GatePath == c.VerifyPath:
		return fmt.Errorf("%w: gate_path and verify_path must differ", ErrInvalidConfig)
	case c.SessionTTL <= 0:
		return fmt.Errorf("%w: session_ttl must be positive", ErrInvalidConfig)
	case c.Metrics.RefreshInterval <= 0:
		return fmt.Errorf("%w: metrics.refresh_interval must be positive", ErrInvalidConfig)
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("%w: redis_url required for redis session store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown session_store %q", ErrInvalidConfig, c.SessionStore)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
