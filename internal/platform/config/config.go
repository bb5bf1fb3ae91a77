package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr     string
	LogLevel string

	// JWTSigningKey verifies the identity assertions presented to the HTTP
	// surface. Authentication itself happens upstream; this key only lets
	// the core trust the (user, role) pair it is handed.
	JWTSigningKey string

	// PostgresDSN selects the durable stores; empty means in-memory.
	PostgresDSN string

	// RedisURL selects the shared denial-window store; empty means in-memory.
	RedisURL string

	// KafkaBrokers enables the audit compliance exporter when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Denial escalation heuristic. Defaults are the tested contract:
	// 60s window, 5 denials -> Warning, 10 -> Critical.
	DenialWindow      time.Duration
	WarningThreshold  int
	CriticalThreshold int

	// SeedDemo registers one development user per role at startup.
	SeedDemo bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:              envOr("CAREGATE_ADDR", ":8080"),
		LogLevel:          envOr("CAREGATE_LOG_LEVEL", "info"),
		JWTSigningKey:     envOr("CAREGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:       os.Getenv("CAREGATE_POSTGRES_DSN"),
		RedisURL:          os.Getenv("CAREGATE_REDIS_URL"),
		KafkaTopic:        envOr("CAREGATE_KAFKA_TOPIC", "caregate.audit"),
		DenialWindow:      envDurationOr("CAREGATE_DENIAL_WINDOW", 60*time.Second),
		WarningThreshold:  envIntOr("CAREGATE_DENIAL_WARNING_THRESHOLD", 5),
		CriticalThreshold: envIntOr("CAREGATE_DENIAL_CRITICAL_THRESHOLD", 10),
		SeedDemo:          os.Getenv("CAREGATE_SEED_DEMO") == "true",
	}
	if brokers := os.Getenv("CAREGATE_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
