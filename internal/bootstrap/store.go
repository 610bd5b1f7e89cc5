package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/momoino-ui/config"
	"github.com/target/momoino-ui/internal/adapters/memory"
	redisstore "github.com/target/momoino-ui/internal/adapters/redis"
	httpx "github.com/target/momoino-ui/internal/http"
	"github.com/target/momoino-ui/internal/ports"
)

// StoreConfig contains configuration for login attempt storage.
type StoreConfig struct {
	Attempts    config.AttemptStoreConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// AttemptStore is the selected store plus what the server needs to watch and release it.
type AttemptStore struct {
	Store ports.AttemptStore
	// Health is nil for the in-memory store.
	Health httpx.Pinger
	Close  func() error
}

// NewAttemptStore builds the attempt store selected by cfg.Attempts.Store.
func NewAttemptStore(ctx context.Context, cfg StoreConfig) (AttemptStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Attempts.Store == config.AttemptStoreMemory {
		logger.Warn("using in-memory login attempt store; attempts are not shared between replicas")
		return AttemptStore{
			Store: memory.NewAttemptStore(cfg.Attempts.TTL),
			Close: func() error { return nil },
		}, nil
	}

	client, err := ConnectRedis(ctx, cfg)
	if err != nil {
		return AttemptStore{}, err
	}
	return AttemptStore{
		Store: redisstore.NewAttemptStore(client, redisstore.AttemptStoreOptions{
			Prefix: cfg.Attempts.KeyPrefix,
			TTL:    cfg.Attempts.TTL,
		}),
		Health: httpx.PingerFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }),
		Close:  client.Close,
	}, nil
}

// ConnectRedis establishes a connection to Redis.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg StoreConfig) (redis.UniversalClient, error) {
	var (
		client   redis.UniversalClient
		addrDesc string
		err      error
	)

	switch {
	case cfg.RedisConfig.UseCluster:
		client, addrDesc, err = newClusterClient(cfg.RedisConfig)
	case cfg.RedisConfig.UseSentinel:
		client, addrDesc, err = newSentinelClient(cfg.RedisConfig)
	default:
		client, addrDesc, err = newDirectClient(cfg.RedisConfig)
	}
	if err != nil {
		return nil, err
	}

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", redactAddr(addrDesc))
	}

	return client, nil
}

// redactAddr drops credentials from a connection description before logging.
func redactAddr(addrDesc string) string {
	if u, parseErr := url.Parse(addrDesc); parseErr == nil && u.User != nil {
		return u.Redacted()
	}
	if i := strings.LastIndex(addrDesc, "@"); i > -1 {
		return addrDesc[i+1:]
	}
	return addrDesc
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newClusterClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	addrs := normalizeAddrs(cfg.ClusterNodes)
	password := cfg.Password
	username := ""
	var tlsConfig *tls.Config

	if len(addrs) == 0 {
		addr, parsedUsername, parsedPassword, parsedTLS, err := clusterFallbackFromURI(cfg.URI, password)
		if err != nil {
			return nil, "", err
		}

		if addr != "" {
			addrs = []string{addr}
			username = parsedUsername
			password = parsedPassword
			tlsConfig = parsedTLS
		}
	}

	if len(addrs) == 0 {
		return nil, "", errors.New("redis cluster configuration requires at least one address")
	}

	clusterOpts := &redis.ClusterOptions{
		Addrs:     addrs,
		Username:  username,
		Password:  password,
		TLSConfig: tlsConfig,
	}
	return redis.NewClusterClient(clusterOpts), "cluster:" + strings.Join(addrs, ","), nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newSentinelClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	nodes := normalizeAddrs(cfg.SentinelNodes)
	if len(nodes) == 0 {
		return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
	}

	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       cfg.SentinelMasterName,
		SentinelAddrs:    nodes,
		Password:         cfg.Password,
		SentinelPassword: cfg.SentinelPassword,
	})
	return client, "sentinel:" + cfg.SentinelMasterName, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func newDirectClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, "", errors.New("redis direct configuration requires a URI")
	}

	if isRedisURL(uri) {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), opt.Addr, nil
	}

	return redis.NewClient(&redis.Options{Addr: uri, Password: cfg.Password}), uri, nil
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func clusterFallbackFromURI(uri, defaultPassword string) (string, string, string, *tls.Config, error) {
	trimmed := strings.TrimSpace(uri)
	if trimmed == "" {
		return "", "", defaultPassword, nil, nil
	}

	if !isRedisURL(trimmed) {
		return trimmed, "", defaultPassword, nil, nil
	}

	opt, err := redis.ParseURL(trimmed)
	if err != nil {
		return "", "", defaultPassword, nil, fmt.Errorf("parse redis cluster url: %w", err)
	}

	password := defaultPassword
	if opt.Password != "" {
		password = opt.Password
	}

	return opt.Addr, opt.Username, password, opt.TLSConfig, nil
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
