package config

import (
	"fmt"
	"strings"
	"time"
)

// AttemptStoreMode selects where pending login attempts are kept.
type AttemptStoreMode string

const (
	// AttemptStoreRedis shares attempts across BFF replicas.
	AttemptStoreRedis AttemptStoreMode = "redis"
	// AttemptStoreMemory keeps attempts in process (single replica or development).
	AttemptStoreMemory AttemptStoreMode = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for AttemptStoreMode.
func (m *AttemptStoreMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "memory":
		*m = AttemptStoreMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AttemptStoreMode: %q (valid options: redis, memory)", v)
	}
}

const defaultAttemptTTL = 10 * time.Minute

// AttemptStoreConfig configures login attempt storage.
type AttemptStoreConfig struct {
	Store AttemptStoreMode `env:"STORE" envDefault:"redis"`

	// TTL bounds how long an unfinished popup login stays valid.
	TTL time.Duration `env:"TTL" envDefault:"10m"`

	// KeyPrefix namespaces attempt keys in Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"momoino:login-attempt:"`
}

// Sanitize applies guardrails to attempt store values.
func (a *AttemptStoreConfig) Sanitize() {
	if a.Store == "" {
		a.Store = AttemptStoreRedis
	}
	if a.TTL <= 0 {
		a.TTL = defaultAttemptTTL
	}
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
