package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_URL", "JWT_SECRET", "TOKEN_TTL", "RATE_LIMIT", "RATE_BURST", "ADMIN_USERNAME", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, float64(10), cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.UsesDefaultSecret())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_URL", "user:pass@tcp(localhost:3306)/vending?parseTime=true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("RATE_BURST", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.False(t, cfg.UsesDefaultSecret())
}
