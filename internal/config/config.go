// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
// - The shared secret lives here and is handed to the gate explicitly; no other
//   package reads it from the environment.
package config

import (
	"time"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Secret is the shared engagement password. Empty disables the gate
	// unless the engagement document carries its own password. A bcrypt
	// hash ($2a$/$2b$/$2y$) is accepted in place of the plain text.
	Secret string `koanf:"secret"`

	// EngagementPath points at the YAML/JSON engagement document. Empty
	// serves the embedded example engagement.
	EngagementPath string `koanf:"engagement_path"`

	// CookieName names the session marker cookie.
	CookieName string `koanf:"cookie_name"`

	// SecureCookie sets the Secure attribute; enable in production.
	SecureCookie bool `koanf:"secure_cookie"`

	// GatePath and VerifyPath are always reachable without a session marker.
	GatePath   string `koanf:"gate_path"`
	VerifyPath string `koanf:"verify_path"`

	// PublicPaths are additional prefixes the gate never redirects.
	PublicPaths []string `koanf:"public_paths"`

	// SessionStore selects the marker registry: memory or redis.
	SessionStore string `koanf:"session_store"`

	// RedisURL is used when SessionStore is redis.
	RedisURL string `koanf:"redis_url"`

	// SessionTTL bounds how long the server remembers an issued marker. The
	// cookie itself has no expiry and dies with the browser session.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// Metrics configures the Prometheus collectors served on /healthz.
	Metrics Metrics `koanf:"metrics"`
}

// Metrics holds the collector settings handed to the metrics manager.
type Metrics struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
	// Prefix is prepended to every metric name after the subsystem.
	Prefix string `koanf:"prefix"`
	// Buckets overrides the latency histogram buckets, in milliseconds.
	Buckets []float64 `koanf:"buckets"`
	// RefreshInterval paces the runtime and service gauge updaters.
	RefreshInterval time.Duration     `koanf:"refresh_interval"`
	Labels          map[string]string `koanf:"labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		CookieName:   "deck_auth",
		GatePath:     "/gate",
		VerifyPath:   "/api/auth",
		PublicPaths:  []string{"/healthz", "/static/"},
		SessionStore: SessionStoreMemory,
		RedisURL:     "redis://localhost:6379/0",
		SessionTTL:   12 * time.Hour,
		Metrics: Metrics{
			Enabled:         true,
			Namespace:       "deck",
			Subsystem:       "presentation",
			RefreshInterval: 10 * time.Second,
		},
	}
}
