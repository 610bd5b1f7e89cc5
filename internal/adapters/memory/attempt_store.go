// Package memory provides in-process adapters for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/ports"
)

var _ ports.AttemptStore = (*AttemptStore)(nil)

type attemptEntry struct {
	req       domainauth.AuthorizationRequest
	expiresAt time.Time
}

// AttemptStore keeps login attempts in a map. It is safe for concurrent use,
// but attempts are lost on restart and not shared between replicas.
type AttemptStore struct {
	mu      sync.Mutex
	entries map[string]attemptEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewAttemptStore creates an in-memory attempt store. ttl <= 0 disables expiry.
func NewAttemptStore(ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		entries: make(map[string]attemptEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *AttemptStore) WithClock(now func() time.Time) *AttemptStore {
	s.now = now
	return s
}

func (s *AttemptStore) Begin(_ context.Context, scope string, req domainauth.AuthorizationRequest) error {
	if scope == "" {
		return errors.New("attempt scope cannot be empty")
	}
	if req.State == "" {
		return errors.New("attempt state cannot be empty")
	}
	if !req.UsePKCE {
		req.CodeVerifier = ""
	}

	entry := attemptEntry{req: req}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.entries[scope] = entry
	return nil
}

func (s *AttemptStore) Read(_ context.Context, scope string) (domainauth.AuthorizationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[scope]
	if !ok {
		return domainauth.AuthorizationRequest{}, domainauth.ErrNoAttempt
	}
	if s.expired(entry) {
		delete(s.entries, scope)
		return domainauth.AuthorizationRequest{}, domainauth.ErrNoAttempt
	}
	return entry.req, nil
}

func (s *AttemptStore) Clear(_ context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, scope)
	return nil
}

// Len reports the number of live attempts.
func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.entries)
}

func (s *AttemptStore) expired(e attemptEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func (s *AttemptStore) sweepLocked() {
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
		}
	}
}
