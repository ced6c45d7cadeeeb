package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv    string
	Port      string
	BaseURL   string
	OriginURL string

	DatabaseURL   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	MigrationsDir string

	RedisURL      string
	RedisAddr     string
	RedisPassword string

	JWTSecret     string
	JWTExpiry     time.Duration
	SessionSecret string

	UploadDir        string
	MaxUploadSize    int64
	MaxCSVUploadSize int64
	StorageDriver    string

	RateLimitBackend string
	RateLimitWindow  time.Duration
	RateLimitMax     int

	ExportCacheTTL  time.Duration
	ProductCacheTTL time.Duration

	LogLevel string
}

var AppConfig *Config

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	AppConfig = &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		Port:      getEnv("APP_PORT", getEnv("PORT", "8000")),
		BaseURL:   getEnv("BASE_URL", "http://localhost:8000"),
		OriginURL: os.Getenv("ORIGIN_URL"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "storefront"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "database/migration"),

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		JWTExpiry:     getDuration("JWT_EXPIRY", 24*time.Hour),
		SessionSecret: getEnv("SESSION_SECRET", "session-secret"),

		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSize:    getInt64("MAX_UPLOAD_SIZE", 5<<20),
		MaxCSVUploadSize: getInt64("MAX_CSV_UPLOAD_SIZE", 1<<20),
		StorageDriver:    getEnv("STORAGE_DRIVER", "local"),

		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		RateLimitWindow:  getDuration("RATE_LIMIT_WINDOW", 2*time.Second),
		RateLimitMax:     int(getInt64("RATE_LIMIT_MAX", 3)),

		ExportCacheTTL:  getDuration("EXPORT_CACHE_TTL", 300*time.Second),
		ProductCacheTTL: getDuration("PRODUCT_CACHE_TTL", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	log.Info().
		Str("env", AppConfig.AppEnv).
		Str("port", AppConfig.Port).
		Msg("configuration loaded")
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

// getDuration accepts Go duration strings ("2s", "5m") or a bare number of seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
	return defaultValue
}
