package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"RATE_LIMIT_WINDOW", "RATE_LIMIT_MAX", "EXPORT_CACHE_TTL", "APP_PORT", "PORT", "DATABASE_URL", "APP_ENV", "MAX_CSV_UPLOAD_SIZE"} {
		t.Setenv(key, "")
	}
	LoadConfig()

	assert.Equal(t, 2*time.Second, AppConfig.RateLimitWindow)
	assert.Equal(t, 3, AppConfig.RateLimitMax)
	assert.Equal(t, 300*time.Second, AppConfig.ExportCacheTTL)
	assert.Equal(t, int64(1<<20), AppConfig.MaxCSVUploadSize)
	assert.Equal(t, "8000", AppConfig.Port)
	assert.False(t, AppConfig.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "5")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("EXPORT_CACHE_TTL", "1m")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_PORT", "")
	t.Setenv("APP_ENV", "production")
	LoadConfig()

	assert.Equal(t, 5*time.Second, AppConfig.RateLimitWindow)
	assert.Equal(t, 10, AppConfig.RateLimitMax)
	assert.Equal(t, time.Minute, AppConfig.ExportCacheTTL)
	assert.Equal(t, "9000", AppConfig.Port)
	assert.True(t, AppConfig.IsProduction())
}

func TestBuildDSNPrefersDatabaseURL(t *testing.T) {
	AppConfig = &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "shop", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/shop?sslmode=disable", BuildDSN())

	AppConfig.DatabaseURL = "postgres://other"
	assert.Equal(t, "postgres://other", BuildDSN())
}
