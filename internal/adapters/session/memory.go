package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/deck/pkg/metrics"
)

// MemoryStore keeps markers in process memory. A background sweeper drops
// expired markers until Close.
type MemoryStore struct {
	mu            sync.RWMutex
	expires       map[string]time.Time
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	closed   bool
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore starts a memory store. The sweeper stops when ctx is done
// or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		expires:       make(map[string]time.Time),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startSweeper(ctx)
	return s
}

// Issue implements Store.
func (s *MemoryStore) Issue(_ context.Context) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	s.expires[token] = s.now().Add(s.ttl)
	n := len(s.expires)
	s.mu.Unlock()

	metrics.RecordSessionIssued()
	metrics.UpdateSessionsActive(n)
	return token, nil
}

// Valid implements Store.
func (s *MemoryStore) Valid(_ context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	s.mu.RLock()
	exp, ok := s.expires[token]
	s.mu.RUnlock()
	return ok && s.now().Before(exp), nil
}

// Revoke implements Store.
func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	_, ok := s.expires[token]
	delete(s.expires, token)
	n := len(s.expires)
	s.mu.Unlock()

	if ok {
		metrics.RecordSessionsRevoked(1)
		metrics.UpdateSessionsActive(n)
	}
	return nil
}

// Len returns the number of tracked markers, expired ones included until
// the next sweep.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expires)
}

// Sweep drops expired markers and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for token, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, token)
			removed++
		}
	}
	n := len(s.expires)
	s.mu.Unlock()

	if removed > 0 {
		metrics.RecordSessionsRevoked(removed)
	}
	metrics.UpdateSessionsActive(n)
	return removed
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
