package session

import "time"

// Defaults shared by both stores.
const (
	DefaultTTL           = 12 * time.Hour
	DefaultSweepInterval = time.Minute
	DefaultKeyPrefix     = "deck:session:"
)

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithTTL sets how long a marker stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired markers are dropped.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL sets the key expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}
