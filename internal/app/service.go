// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/deck/internal/adapters/session"
	"github.com/okian/deck/internal/config"
	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/gate"
	"github.com/okian/deck/pkg/logger"
	"github.com/okian/deck/pkg/metrics"
)

// Secret sources reported by SecretSource.
const (
	SecretFromConfig     = "config"
	SecretFromEngagement = "engagement"
	SecretNone           = "none"
)

// ErrNotStarted is returned by operations that need a started service.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the engagement deck.
type Service struct {
	mu sync.RWMutex

	// Core components
	engagement *engagement.Engagement
	verifier   *gate.Verifier
	store      session.Store

	// Configuration
	cfg          *config.Config
	preloaded    *engagement.Engagement
	redisOptions []session.RedisOption
	sweepEvery   time.Duration
	secretSource string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the process configuration. Defaults apply when omitted.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithEngagement serves e instead of loading cfg.EngagementPath.
func WithEngagement(e *engagement.Engagement) Option {
	return func(s *Service) {
		s.preloaded = e
	}
}

// WithStore injects a session store. The service closes it on Stop.
func WithStore(store session.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSweepInterval sets how often the memory store drops expired markers.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sweepEvery = interval
		}
	}
}

// WithRedisOptions passes extra options to the Redis session store.
func WithRedisOptions(opts ...session.RedisOption) Option {
	return func(s *Service) {
		s.redisOptions = append(s.redisOptions, opts...)
	}
}

// WithLogger sets the logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new Service with the given options.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:        config.New(),
		sweepEvery: session.DefaultSweepInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the engagement, resolves the secret and opens the session store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting deck service...",
		logger.String("engagementPath", s.cfg.EngagementPath),
		logger.String("sessionStore", s.cfg.SessionStore),
	)

	e := s.preloaded
	if e == nil {
		loaded, err := engagement.Load(ctx, s.cfg.EngagementPath)
		if err != nil {
			return fmt.Errorf("load engagement: %w", err)
		}
		e = loaded
	} else if err := engagement.Validate(e); err != nil {
		return fmt.Errorf("load engagement: %w", err)
	}
	for _, w := range e.Warnings() {
		s.logger.Warn(ctx, "engagement warning", logger.String("warning", w))
	}

	secret, source := resolveSecret(s.cfg.Secret, e.Password)
	verifier := gate.NewVerifier(secret)
	if !verifier.Enabled() {
		s.logger.Warn(ctx, "no secret configured, gate disabled")
	}

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}

	s.engagement = e
	s.verifier = verifier
	s.secretSource = source
	s.started = true

	metrics.UpdateGateEnabled(verifier.Enabled())
	for kind, n := range slideCounts(e) {
		metrics.UpdateEngagementSlides(string(kind), n)
	}

	s.logger.Info(ctx, "deck service started",
		logger.String("engagement", e.ID),
		logger.String("client", e.Client),
		logger.Int("slides", len(e.Slides)),
		logger.String("secretSource", source),
		logger.Bool("hashedSecret", verifier.Hashed()),
	)

	return nil
}

func (s *Service) openStore(ctx context.Context) (session.Store, error) {
	switch s.cfg.SessionStore {
	case config.SessionStoreRedis:
		opts := append([]session.RedisOption{session.WithRedisTTL(s.cfg.SessionTTL)}, s.redisOptions...)
		store, err := session.NewRedisStore(ctx, s.cfg.RedisURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		return store, nil
	default:
		// The sweeper outlives the start context; Stop ends it.
		return session.NewMemoryStore(context.WithoutCancel(ctx),
			session.WithTTL(s.cfg.SessionTTL),
			session.WithSweepInterval(s.sweepEvery),
		), nil
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping deck service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "close session store", logger.Error(err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "deck service stopped")
}

// GateEnabled reports whether a shared secret is in force.
func (s *Service) GateEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifier != nil && s.verifier.Enabled()
}

// SecretSource reports where the secret came from: config, engagement or none.
func (s *Service) SecretSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secretSource
}

// Verify checks a submitted secret.
func (s *Service) Verify(ctx context.Context, secret string) error {
	s.mu.RLock()
	v := s.verifier
	s.mu.RUnlock()
	if v == nil {
		return gate.ErrNotConfigured
	}
	return v.Verify(ctx, secret)
}

// IssueSession registers a new session marker.
func (s *Service) IssueSession(ctx context.Context) (string, error) {
	store, err := s.sessions()
	if err != nil {
		return "", err
	}
	return store.Issue(ctx)
}

// ValidSession reports whether token was issued and has not expired.
func (s *Service) ValidSession(ctx context.Context, token string) (bool, error) {
	store, err := s.sessions()
	if err != nil {
		return false, err
	}
	return store.Valid(ctx, token)
}

// RevokeSession forgets token.
func (s *Service) RevokeSession(ctx context.Context, token string) error {
	store, err := s.sessions()
	if err != nil {
		return err
	}
	return store.Revoke(ctx, token)
}

// Engagement returns the loaded engagement, or nil before Start.
func (s *Service) Engagement() *engagement.Engagement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engagement
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"sessionStore": s.cfg.SessionStore,
		"secretSource": s.secretSource,
	}
	if s.started {
		stats["gateEnabled"] = s.verifier.Enabled()
		stats["slides"] = len(s.engagement.Slides)
		if m, ok := s.store.(*session.MemoryStore); ok {
			n := m.Len()
			stats["sessions"] = n
			metrics.UpdateSessionsActive(n)
		}
	}
	return stats
}

func (s *Service) sessions() (session.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// resolveSecret picks the configured secret, falling back to the
// engagement's own password.
func resolveSecret(configured, documented string) (secret, source string) {
	switch {
	case configured != "":
		return configured, SecretFromConfig
	case documented != "":
		return documented, SecretFromEngagement
	default:
		return "", SecretNone
	}
}

func slideCounts(e *engagement.Engagement) map[engagement.LayoutKind]int {
	counts := make(map[engagement.LayoutKind]int, len(engagement.Kinds()))
	for _, k := range engagement.Kinds() {
		counts[k] = 0
	}
	for _, sl := range e.Slides {
		counts[sl.Layout.Kind()]++
	}
	return counts
}
