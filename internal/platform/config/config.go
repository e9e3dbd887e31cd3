package config

import (
	"os"
	"strconv"
	"time"
)

// AuditMode selects when audit events become durable relative to the response.
type AuditMode string

const (
	// AuditModeSync appends the event to the store before the handler returns.
	AuditModeSync AuditMode = "sync"
	// AuditModeAsync queues the event for a background worker.
	AuditModeAsync AuditMode = "async"
)

// ResolverKind selects how token subjects are resolved to identities.
type ResolverKind string

const (
	ResolverStore  ResolverKind = "store"
	ResolverStatic ResolverKind = "static"
)

// Server captures process-wide configuration. It is built once at startup
// and passed by value; nothing mutates it afterwards.
type Server struct {
	Addr        string
	Environment string

	JWTSigningKey string
	TokenTTL      time.Duration

	DatabaseURL string
	RedisURL    string

	KafkaBrokers string
	AuditTopic   string

	AuditMode     AuditMode
	AuditQueueLen int

	Resolver         ResolverKind
	IdentityCacheTTL time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("CAREGATE_ADDR", ":8080"),
		Environment:      envOr("ENVIRONMENT", "development"),
		JWTSigningKey:    envOr("JWT_SECRET", "dev-secret-key-change-in-production"),
		TokenTTL:         envDuration("TOKEN_TTL", 30*time.Minute),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		AuditTopic:       envOr("AUDIT_TOPIC", "caregate.audit.events"),
		AuditMode:        AuditModeSync,
		AuditQueueLen:    envInt("AUDIT_QUEUE_LEN", 1024),
		Resolver:         ResolverStore,
		IdentityCacheTTL: envDuration("IDENTITY_CACHE_TTL", 5*time.Minute),
	}

	if os.Getenv("AUDIT_MODE") == string(AuditModeAsync) {
		cfg.AuditMode = AuditModeAsync
	}
	if os.Getenv("IDENTITY_RESOLVER") == string(ResolverStatic) {
		cfg.Resolver = ResolverStatic
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
