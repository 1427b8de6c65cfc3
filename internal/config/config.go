package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          string
	DBDriver      string
	DBUrl         string
	JWTSecret     string
	TokenTTL      time.Duration
	RateLimit     float64
	RateBurst     int
	AdminUsername string
	AdminPassword string
	LogLevel      string
}

const defaultJWTSecret = "default-secret-key-change-in-production"

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using environment and defaults")
	}

	dbURL := os.Getenv("DB_URL")
	dbDriver := os.Getenv("DB_DRIVER")
	if dbDriver == "" {
		dbDriver = "memory"
		if dbURL != "" {
			dbDriver = "mysql"
		}
	}

	return Config{
		Port:          getEnv("PORT", "8080"),
		DBDriver:      dbDriver,
		DBUrl:         dbURL,
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),
		RateLimit:     getFloat("RATE_LIMIT", 10),
		RateBurst:     getInt("RATE_BURST", 20),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// UsesDefaultSecret reports whether JWT_SECRET was left unset.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid number, using default")
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}
