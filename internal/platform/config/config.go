package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "clientele/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	APIVersion  string
	LogLevel    string
	CORSOrigins []string

	JWTSigningKey string
	JWTIssuer     string

	RateLimit RateLimitConfig
	Redis     RedisConfig
	Kafka     KafkaConfig

	AuditAsyncBuffer int
}

// RateLimitConfig configures the per-IP sliding window on API routes.
type RateLimitConfig struct {
	Disabled     bool
	PerMinute    int
	Window       time.Duration
	TrustedProxy bool
}

// RedisConfig configures the optional Redis connection. An empty URL keeps
// every Redis-backed store in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event sink. No brokers means audit
// events stay in memory.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	ClientID   string
}

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:5173",
}

// IsProduction reports whether the server runs with APP_ENV=production.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set win over the file.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          envString("CLIENTELE_ADDR", ":3000"),
		Environment:   envString("APP_ENV", "development"),
		APIVersion:    envString("API_VERSION", "v1"),
		LogLevel:      envString("LOG_LEVEL", "info"),
		CORSOrigins:   envList("CORS_ORIGINS", defaultCORSOrigins),
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     envString("JWT_ISSUER", "clientele"),
		RateLimit: RateLimitConfig{
			Disabled:     envBool("RATE_LIMIT_DISABLED", false),
			PerMinute:    envInt("RATE_LIMIT_PER_MINUTE", 300),
			Window:       time.Minute,
			TrustedProxy: envBool("TRUST_PROXY_HEADERS", false),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS", nil),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "clientele.audit"),
			ClientID:   envString("KAFKA_CLIENT_ID", "clientele"),
		},
		AuditAsyncBuffer: envInt("AUDIT_ASYNC_BUFFER", 256),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string, fallback []string) []string {
	items := pstrings.SplitList(os.Getenv(key), ",")
	if len(items) == 0 {
		return fallback
	}
	return items
}
