package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Outbox    OutboxConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// CORSOrigins is a comma-separated allow list for the dashboard frontend.
	CORSOrigins string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values used for realtime broadcast.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	JWTIssuer             string
	JWKSURL               string
	JWKSRefreshMinutes    int
	AccessTokenTTLMinutes int
	BcryptCost            int
	// BootstrapAdminEmail, when set, seeds an admin account at startup so
	// the first registration requests can be reviewed.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// OutboxConfig sizes the side-effect worker pool.
type OutboxConfig struct {
	Workers               int
	QueueSize             int
	HandlerTimeoutSeconds int
}

// StorageConfig locates the attachment object store.
type StorageConfig struct {
	Dir            string
	MaxUploadBytes int64
}

// RateLimitConfig throttles unauthenticated endpoints per client IP.
type RateLimitConfig struct {
	PublicPerSecond int
	PublicBurst     int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           os.Getenv("APP_CORS_ORIGINS"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			ChannelPrefix: os.Getenv("REDIS_CHANNEL_PREFIX"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnv("AUTH_JWT_SECRET", "dev-secret"),
			JWTIssuer:              os.Getenv("AUTH_JWT_ISSUER"),
			JWKSURL:                os.Getenv("AUTH_JWKS_URL"),
			JWKSRefreshMinutes:     getEnvAsInt("AUTH_JWKS_REFRESH_MINUTES", 15),
			AccessTokenTTLMinutes:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapAdminEmail:    os.Getenv("AUTH_BOOTSTRAP_ADMIN_EMAIL"),
			BootstrapAdminPassword: os.Getenv("AUTH_BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Outbox: OutboxConfig{
			Workers:               getEnvAsInt("OUTBOX_WORKERS", 4),
			QueueSize:             getEnvAsInt("OUTBOX_QUEUE_SIZE", 256),
			HandlerTimeoutSeconds: getEnvAsInt("OUTBOX_HANDLER_TIMEOUT_SECONDS", 5),
		},
		Storage: StorageConfig{
			Dir:            getEnv("STORAGE_DIR", "./data/attachments"),
			MaxUploadBytes: int64(getEnvAsInt("STORAGE_MAX_UPLOAD_BYTES", 10<<20)),
		},
		RateLimit: RateLimitConfig{
			PublicPerSecond: getEnvAsInt("RATE_LIMIT_PUBLIC_PER_SECOND", 5),
			PublicBurst:     getEnvAsInt("RATE_LIMIT_PUBLIC_BURST", 10),
		},
	}

	if cfg.App.Env == "production" && cfg.Auth.JWKSURL == "" && cfg.Auth.JWTSecret == "dev-secret" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET or AUTH_JWKS_URL must be set in production")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// HandlerTimeout bounds a single side-effect handler invocation.
func (o OutboxConfig) HandlerTimeout() time.Duration {
	if o.HandlerTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(o.HandlerTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
