package redis

// Package redis provides Redis-based adapters for the console.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/ports"
)

// DefaultAttemptTTL bounds how long an abandoned login attempt lingers.
const DefaultAttemptTTL = 10 * time.Minute

// Hash fields of an attempt. Each maps to one key of the tab-scoped storage.
const (
	fieldProvider = "provider"
	fieldState    = "state"
	fieldUsePKCE  = "usePkce"
	fieldVerifier = "verifier"
)

var _ ports.AttemptStore = (*AttemptStore)(nil)

// AttemptStore keeps login attempts in Redis hashes that expire after a TTL.
type AttemptStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// AttemptStoreOptions configures an AttemptStore.
type AttemptStoreOptions struct {
	Prefix string
	TTL    time.Duration
}

// NewAttemptStore creates a Redis-based attempt store.
func NewAttemptStore(client redis.UniversalClient, opts AttemptStoreOptions) *AttemptStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "login-attempt:"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultAttemptTTL
	}
	return &AttemptStore{client: client, prefix: prefix, ttl: ttl}
}

// Begin replaces any attempt stored for scope with req.
func (s *AttemptStore) Begin(ctx context.Context, scope string, req domainauth.AuthorizationRequest) error {
	if scope == "" {
		return errors.New("attempt scope cannot be empty")
	}
	if req.State == "" {
		return errors.New("attempt state cannot be empty")
	}

	key := s.prefix + scope
	verifier := req.CodeVerifier
	if !req.UsePKCE {
		verifier = ""
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldProvider, req.Provider,
			fieldState, req.State,
			fieldUsePKCE, strconv.FormatBool(req.UsePKCE),
			fieldVerifier, verifier,
		)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis begin attempt: %w", err)
	}
	return nil
}

// Read returns the attempt for scope.
func (s *AttemptStore) Read(ctx context.Context, scope string) (domainauth.AuthorizationRequest, error) {
	if scope == "" {
		return domainauth.AuthorizationRequest{}, domainauth.ErrNoAttempt
	}

	fields, err := s.client.HGetAll(ctx, s.prefix+scope).Result()
	if err != nil {
		return domainauth.AuthorizationRequest{}, fmt.Errorf("redis read attempt: %w", err)
	}
	if len(fields) == 0 || fields[fieldState] == "" {
		return domainauth.AuthorizationRequest{}, domainauth.ErrNoAttempt
	}

	usePKCE, err := strconv.ParseBool(fields[fieldUsePKCE])
	if err != nil {
		usePKCE = false
	}
	return domainauth.AuthorizationRequest{
		Provider:     fields[fieldProvider],
		State:        fields[fieldState],
		UsePKCE:      usePKCE,
		CodeVerifier: fields[fieldVerifier],
	}, nil
}

// Clear deletes the attempt. Deleting a missing key succeeds.
func (s *AttemptStore) Clear(ctx context.Context, scope string) error {
	if scope == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+scope).Err(); err != nil {
		return fmt.Errorf("redis clear attempt: %w", err)
	}
	return nil
}
