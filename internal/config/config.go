package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	Port      string
	JWTSecret string
	LogMode   string

	// Location is the timezone that defines a "calendar day" for the daily gate.
	Location *time.Location

	RequestTimeout time.Duration
	EnrichInterval time.Duration

	CORSOrigins string
	CORSMethods string
	CORSHeaders string

	AI *AIConfig
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tzName := getEnv("APP_TIMEZONE", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tzName, err)
	}

	cfg := &Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "mindtracking"),
		RedisAddr:      redisAddr(getEnv("REDIS_URI", "localhost:6379")),
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		LogMode:        getEnv("LOG_MODE", "dev"),
		Location:       loc,
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		EnrichInterval: getDuration("DIARY_ENRICH_INTERVAL", time.Minute),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSMethods:    getEnv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS"),
		CORSHeaders:    getEnv("CORS_ALLOWED_HEADERS", "Content-Type, Authorization, X-Request-ID"),
		AI:             DefaultAIConfig(),
	}
	return cfg, nil
}

// redisAddr strips the redis:// scheme go-redis does not expect in Addr.
func redisAddr(v string) string {
	if len(v) > 8 && v[:8] == "redis://" {
		return v[8:]
	}
	return v
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
