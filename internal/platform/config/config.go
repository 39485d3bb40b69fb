package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	strutil "coopreg/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	AdminToken  string

	// DatabaseURL selects the Postgres stores; empty keeps everything in memory.
	DatabaseURL string

	Redis RedisConfig
	Blob  BlobConfig
	Audit AuditConfig

	OTLPEndpoint string

	// MemberCountCeiling bounds numberOfMembers on member records.
	MemberCountCeiling int

	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis blob backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BlobConfig configures evidence uploads.
type BlobConfig struct {
	PublicBaseURL string
	MaxBytes      int64
	// ResolveTimeout bounds a single reference resolution.
	ResolveTimeout time.Duration
}

// AuditConfig selects where audit events go beyond the structured log.
type AuditConfig struct {
	KafkaBrokers []string
	Topic        string
}

const (
	defaultAddr               = ":8080"
	defaultAdminToken         = "dev-admin-token-change-in-production"
	defaultBlobMaxBytes int64 = 10 << 20
	defaultAuditTopic         = "coopreg.audit"
	defaultMemberCeiling      = 1_000_000
)

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
func FromEnv() Server {
	_ = godotenv.Load()

	adminToken := os.Getenv("ADMIN_API_TOKEN")
	if adminToken == "" {
		// Use a default for development - should be overridden in production
		adminToken = defaultAdminToken
	}

	return Server{
		Addr:        envOr("COOPREG_ADDR", defaultAddr),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		AdminToken:  adminToken,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Blob: BlobConfig{
			PublicBaseURL:  strings.TrimRight(envOr("BLOB_PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			MaxBytes:       int64(envInt("BLOB_MAX_BYTES", int(defaultBlobMaxBytes))),
			ResolveTimeout: envDuration("BLOB_RESOLVE_TIMEOUT", 2*time.Second),
		},
		Audit: AuditConfig{
			KafkaBrokers: strutil.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:        envOr("AUDIT_TOPIC", defaultAuditTopic),
		},
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		MemberCountCeiling: envInt("MEMBER_COUNT_CEILING", defaultMemberCeiling),
		ShutdownTimeout:    envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
