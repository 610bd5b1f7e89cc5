package testutil

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
)

// TestingTB is an interface that covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Cleanup(func())
	Skip(args ...interface{})
	Skipf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
}

// signingKey signs identity tokens minted for tests. Signatures are never verified
// by the console, so any key works.
var signingKey = []byte("momoino-test-signing-key")

// SetupTestRedis returns a Redis client for tests.
// TEST_REDIS_ADDR points tests at a real server; otherwise an in-process miniredis is used
// and the returned server handle can fast-forward TTLs.
func SetupTestRedis(t TestingTB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	if addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR")); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			t.Skipf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Cleanup(func() {
			if err := client.Close(); err != nil {
				t.Logf("warning: failed to close redis client: %v", err)
			}
		})
		return client, nil
	}

	srv := miniredis.NewMiniRedis()
	if err := srv.Start(); err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
		srv.Close()
	})
	return client, srv
}

// IdentityClaims returns a complete claim set bound to sessionID.
func IdentityClaims(sessionID string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sid":                sessionID,
		"sub":                "user-123",
		"iat":                now.Unix(),
		"nbf":                now.Unix(),
		"exp":                now.Add(5 * time.Minute).Unix(),
		"email":              "jane.doe@example.com",
		"email_verified":     true,
		"given_name":         "Jane",
		"family_name":        "Doe",
		"preferred_username": "jdoe",
		"locale":             "en",
		"roles":              []string{"admin"},
		"permissions":        []string{"shows:read", "shows:write"},
	}
}

// IdentityToken signs claims into a compact JWT.
func IdentityToken(t TestingTB, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("sign identity token: %v", err)
	}
	return signed
}

// SessionCookies returns the identity and session cookies for a valid session.
func SessionCookies(t TestingTB, sessionID string) []*http.Cookie {
	t.Helper()
	return []*http.Cookie{
		{Name: domainauth.IdentityCookie, Value: IdentityToken(t, IdentityClaims(sessionID))},
		{Name: domainauth.SessionCookie, Value: sessionID},
	}
}

var _ TestingTB = (*testing.T)(nil)
