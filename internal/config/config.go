// Package config loads runtime configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreSupabase = "supabase"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the top-level service configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Supabase  SupabaseConfig
	Database  DatabaseConfig
	Generator GeneratorConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Logging   LoggingConfig
	Upload    UploadConfig
	Explore   ExploreConfig
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=8000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
}

type StoreConfig struct {
	Driver         string        `env:"STORE_DRIVER,default=supabase"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT,default=10s"`
}

type SupabaseConfig struct {
	URL                 string        `env:"SUPABASE_URL"`
	ServiceKey          string        `env:"SUPABASE_SERVICE_KEY"`
	Bucket              string        `env:"SUPABASE_STORAGE_BUCKET,default=research-docs"`
	MaxRetries          int           `env:"SUPABASE_MAX_RETRIES,default=0"`
	BreakerThreshold    int           `env:"SUPABASE_BREAKER_THRESHOLD,default=5"`
	BreakerOpenDuration time.Duration `env:"SUPABASE_BREAKER_OPEN,default=30s"`
}

type DatabaseConfig struct {
	DSN            string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"DATABASE_MIGRATE,default=true"`
	MaxOpenConns   int    `env:"DATABASE_MAX_OPEN_CONNS,default=10"`
}

// GeneratorConfig points at the external language-model agents. Each kind
// has its own path and an optional JSONPath selecting the payload inside the
// agent's response envelope.
type GeneratorConfig struct {
	BaseURL           string        `env:"GENERATOR_URL,default=http://localhost:9000"`
	APIKey            string        `env:"GENERATOR_API_KEY"`
	Timeout           time.Duration `env:"GENERATOR_TIMEOUT,default=90s"`
	QuestionsPath     string        `env:"GENERATOR_QUESTIONS_PATH,default=/agents/questions"`
	AssignmentsPath   string        `env:"GENERATOR_ASSIGNMENTS_PATH,default=/agents/research-assignments"`
	PRDPath           string        `env:"GENERATOR_PRD_PATH,default=/agents/prd"`
	QuestionsResult   string        `env:"GENERATOR_QUESTIONS_RESULT,default=$"`
	AssignmentsResult string        `env:"GENERATOR_ASSIGNMENTS_RESULT,default=$"`
	PRDResult         string        `env:"GENERATOR_PRD_RESULT,default=$"`
}

// DefaultJWTSecret is the JWT_SECRET default. Tokens signed with it can be
// forged by anyone, so it is refused when REQUIRE_AUTH is set.
const DefaultJWTSecret = "super-secret-key"

type AuthConfig struct {
	JWTSecret   string        `env:"JWT_SECRET,default=super-secret-key"`
	AccessTTL   time.Duration `env:"JWT_ACCESS_TTL,default=15m"`
	RefreshTTL  time.Duration `env:"JWT_REFRESH_TTL,default=168h"`
	RequireAuth bool          `env:"REQUIRE_AUTH,default=false"`
}

// UsesDefaultSecret reports whether JWT_SECRET was left at its default.
func (a AuthConfig) UsesDefaultSecret() bool {
	return a.JWTSecret == DefaultJWTSecret
}

type CORSConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000;http://127.0.0.1:3000;http://localhost:8080;http://localhost:8081"`
}

type RateLimitConfig struct {
	RequestsPerSecond int    `env:"RATE_LIMIT_RPS,default=20"`
	Burst             int    `env:"RATE_LIMIT_BURST,default=40"`
	CleanupSchedule   string `env:"RATE_LIMIT_CLEANUP,default=@every 5m"`
}

type RedisConfig struct {
	URL     string        `env:"REDIS_URL"`
	LockTTL time.Duration `env:"GENERATION_LOCK_TTL,default=2m"`
}

type NATSConfig struct {
	URL           string `env:"NATS_URL"`
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX,default=hackcrew"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
}

type UploadConfig struct {
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES,default=10485760"`
}

type ExploreConfig struct {
	DatasetPath string `env:"EXPLORE_DATASET_PATH"`
}

// Load reads envFile (if it exists) into the process environment and decodes
// the configuration.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreSupabase:
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase store")
		}
	case StorePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Auth.RequireAuth && c.Auth.UsesDefaultSecret() {
		return fmt.Errorf("JWT_SECRET must be changed from its default when REQUIRE_AUTH is set")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// Origins returns the configured CORS origins. Both ';' and ',' separate
// entries.
func (c CORSConfig) Origins() []string {
	fields := strings.FieldsFunc(c.AllowedOrigins, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
