package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/testutil"
)

func sampleAttempt() domainauth.AuthorizationRequest {
	return domainauth.AuthorizationRequest{
		Provider:     "google",
		State:        "state-123",
		UsePKCE:      true,
		CodeVerifier: "verifier-456",
	}
}

func TestAttemptStore_BeginAndRead(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewAttemptStore(client, AttemptStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, "scope-1", sampleAttempt()))

	got, err := store.Read(ctx, "scope-1")
	require.NoError(t, err)
	assert.Equal(t, sampleAttempt(), got)
}

func TestAttemptStore_LastWriterWins(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewAttemptStore(client, AttemptStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, "scope-1", sampleAttempt()))
	second := domainauth.AuthorizationRequest{Provider: "github", State: "state-789", UsePKCE: false}
	require.NoError(t, store.Begin(ctx, "scope-1", second))

	got, err := store.Read(ctx, "scope-1")
	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.Empty(t, got.CodeVerifier, "stale verifier must not survive a non-PKCE attempt")
}

func TestAttemptStore_NonPKCEDropsVerifier(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewAttemptStore(client, AttemptStoreOptions{})
	ctx := context.Background()

	req := sampleAttempt()
	req.UsePKCE = false
	require.NoError(t, store.Begin(ctx, "scope-1", req))

	got, err := store.Read(ctx, "scope-1")
	require.NoError(t, err)
	assert.Empty(t, got.CodeVerifier)
}

func TestAttemptStore_ReadMissing(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewAttemptStore(client, AttemptStoreOptions{})

	_, err := store.Read(context.Background(), "nope")
	require.ErrorIs(t, err, domainauth.ErrNoAttempt)
	_, err = store.Read(context.Background(), "")
	require.ErrorIs(t, err, domainauth.ErrNoAttempt)
}

func TestAttemptStore_ClearIsIdempotent(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewAttemptStore(client, AttemptStoreOptions{})
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, "scope-1", sampleAttempt()))
	require.NoError(t, store.Clear(ctx, "scope-1"))
	require.NoError(t, store.Clear(ctx, "scope-1"))

	_, err := store.Read(ctx, "scope-1")
	require.ErrorIs(t, err, domainauth.ErrNoAttempt)
	assert.Equal(t, int64(0), client.Exists(ctx, "login-attempt:scope-1").Val())
}

func TestAttemptStore_Expires(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	if srv == nil {
		t.Skip("TTL fast-forward needs miniredis")
	}
	store := NewAttemptStore(client, AttemptStoreOptions{TTL: time.Minute, Prefix: "test:"})
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, "scope-1", sampleAttempt()))
	assert.Equal(t, int64(1), client.Exists(ctx, "test:scope-1").Val())

	srv.FastForward(2 * time.Minute)

	_, err := store.Read(ctx, "scope-1")
	require.ErrorIs(t, err, domainauth.ErrNoAttempt)
}

func TestAttemptStore_BeginValidation(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewAttemptStore(client, AttemptStoreOptions{})

	require.Error(t, store.Begin(context.Background(), "", sampleAttempt()))
	require.Error(t, store.Begin(context.Background(), "scope", domainauth.AuthorizationRequest{Provider: "google"}))
}
