package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Store
	RedisURL     string
	RoomTTL      time.Duration
	BacklogLimit int

	// Upstream speech services
	STTURL          string
	TranslateURL    string
	TTSURL          string
	UpstreamAPIKey  string
	UpstreamTimeout time.Duration

	// Request limits
	MinAudioBytes int
	MaxAudioBytes int64
	MaxJSONBytes  int64

	AllowedOrigins []string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RoomTTL:         time.Duration(getEnvInt("ROOM_TTL_SEC", 3600)) * time.Second,
		BacklogLimit:    getEnvInt("BACKLOG_LIMIT", 50),
		STTURL:          os.Getenv("STT_URL"),
		TranslateURL:    os.Getenv("TRANSLATE_URL"),
		TTSURL:          os.Getenv("TTS_URL"),
		UpstreamAPIKey:  os.Getenv("UPSTREAM_API_KEY"),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SEC", 60)) * time.Second,
		MinAudioBytes:   getEnvInt("MIN_AUDIO_BYTES", 1000),
		MaxAudioBytes:   int64(getEnvInt("MAX_AUDIO_BYTES", 10<<20)),
		MaxJSONBytes:    int64(getEnvInt("MAX_JSON_BYTES", 8<<10)),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, entry := range strings.Split(origins, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, entry)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{"*"}
	}

	// In production, require the shared store and the speech services.
	if cfg.Env == "production" {
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
		if cfg.STTURL == "" || cfg.TranslateURL == "" || cfg.TTSURL == "" {
			panic("STT_URL, TRANSLATE_URL and TTS_URL are required in production")
		}
		if cfg.UpstreamAPIKey == "" {
			panic("UPSTREAM_API_KEY is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
