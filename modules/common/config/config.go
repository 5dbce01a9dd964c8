package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config - 서버 환경 설정
type Config struct {
	// 서버
	Port string

	// Gemini API
	GeminiAPIKey  string
	GeminiBaseURL string
	ImageModel    string
	VideoModel    string

	// 생성 타이밍
	VideoPollInterval time.Duration
	AdvisoryInterval  time.Duration
	FetchTimeout      time.Duration

	// 에셋 저장소
	AssetStore string
	AssetTTL   time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool
}

const (
	AssetStoreMemory = "memory"
	AssetStoreRedis  = "redis"
)

// LoadConfig - 환경변수 로드 (.env 있으면 먼저 로드)
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	useTLS := false
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),
		ImageModel:    getEnv("IMAGE_MODEL", "imagen-4.0-generate-001"),
		VideoModel:    getEnv("VIDEO_MODEL", "veo-3.1-fast-generate-preview"),

		VideoPollInterval: getDuration("VIDEO_POLL_INTERVAL", 10*time.Second),
		AdvisoryInterval:  getDuration("ADVISORY_INTERVAL", 3*time.Second),
		FetchTimeout:      getDuration("HTTP_FETCH_TIMEOUT", 5*time.Minute),

		AssetStore: getEnv("ASSET_STORE", AssetStoreMemory),
		AssetTTL:   getDuration("ASSET_TTL", time.Hour),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Models: image=%s video=%s", cfg.ImageModel, cfg.VideoModel)
	log.Printf("   Poll interval: %s, advisory interval: %s", cfg.VideoPollInterval, cfg.AdvisoryInterval)
	log.Printf("   Asset store: %s (TTL: %s)", cfg.AssetStore, cfg.AssetTTL)
	if cfg.AssetStore == AssetStoreRedis {
		log.Printf("   Redis: %s (TLS: %v)", cfg.GetRedisAddr(), cfg.RedisUseTLS)
	}
	if cfg.GeminiAPIKey == "" {
		log.Println("⚠️  GEMINI_API_KEY not set, a key must be selected from the UI")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.ImageModel == "" || c.VideoModel == "" {
		return fmt.Errorf("IMAGE_MODEL and VIDEO_MODEL must not be empty")
	}
	if c.VideoPollInterval <= 0 {
		return fmt.Errorf("VIDEO_POLL_INTERVAL must be positive")
	}
	if c.AdvisoryInterval <= 0 {
		return fmt.Errorf("ADVISORY_INTERVAL must be positive")
	}
	switch c.AssetStore {
	case AssetStoreMemory:
	case AssetStoreRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST is required when ASSET_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown ASSET_STORE %q (want memory or redis)", c.AssetStore)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration - "10s" 형식 또는 초 단위 숫자("10") 허용
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("⚠️  Invalid duration for %s=%q, using %s", key, raw, defaultValue)
	return defaultValue
}

// GetRedisAddr - Redis 주소 (host:port)
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
