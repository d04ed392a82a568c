package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port      string
	StaticDir string

	// Gemini API
	ImageModels         []string // 선호 이미지 모델 (우선순위 순)
	TextModels          []string // 선호 텍스트 모델 (우선순위 순)
	GeminiBaseURL       string
	GeminiMaxAttempts   int
	GenerateAllParallel bool

	// Redis (선택)
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Quota (선택)
	QuotaMaxImages   int
	QuotaWindowHours int
}

var (
	DefaultImageModels = []string{"gemini-2.5-flash-image", "gemini-2.0-flash-exp"}
	DefaultTextModels  = []string{"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-1.5-flash"}
)

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg := FromEnv()

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Image models: %s", strings.Join(cfg.ImageModels, ", "))
	log.Printf("   Text models: %s", strings.Join(cfg.TextModels, ", "))
	log.Printf("   Gemini attempts: %d, parallel layers: %v", cfg.GeminiMaxAttempts, cfg.GenerateAllParallel)
	if cfg.RedisEnabled() {
		log.Printf("   Redis: %s (TLS: %v)", cfg.GetRedisAddr(), cfg.RedisUseTLS)
	}
	if cfg.QuotaMaxImages > 0 {
		log.Printf("   Quota: %d images / %dh", cfg.QuotaMaxImages, cfg.QuotaWindowHours)
	}

	return cfg, nil
}

// FromEnv - .env 로드 없이 현재 환경변수로 Config 구성
func FromEnv() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		StaticDir: getEnv("STATIC_DIR", ""),

		ImageModels:         getList("GEMINI_IMAGE_MODELS", DefaultImageModels),
		TextModels:          getList("GEMINI_TEXT_MODELS", DefaultTextModels),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", ""),
		GeminiMaxAttempts:   getInt("GEMINI_MAX_ATTEMPTS", 1),
		GenerateAllParallel: getBool("GENERATE_ALL_PARALLEL", false),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getBool("REDIS_USE_TLS", false),

		QuotaMaxImages:   getInt("QUOTA_MAX_IMAGES", 0),
		QuotaWindowHours: getInt("QUOTA_WINDOW_HOURS", 24),
	}
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if len(c.ImageModels) == 0 {
		return fmt.Errorf("GEMINI_IMAGE_MODELS must list at least one model")
	}
	if len(c.TextModels) == 0 {
		return fmt.Errorf("GEMINI_TEXT_MODELS must list at least one model")
	}
	if c.GeminiMaxAttempts < 1 {
		return fmt.Errorf("GEMINI_MAX_ATTEMPTS must be >= 1, got %d", c.GeminiMaxAttempts)
	}
	if c.QuotaMaxImages < 0 {
		return fmt.Errorf("QUOTA_MAX_IMAGES must be >= 0, got %d", c.QuotaMaxImages)
	}
	if c.QuotaMaxImages > 0 {
		if !c.RedisEnabled() {
			return fmt.Errorf("QUOTA_MAX_IMAGES requires REDIS_HOST")
		}
		if c.QuotaWindowHours < 1 {
			return fmt.Errorf("QUOTA_WINDOW_HOURS must be >= 1, got %d", c.QuotaWindowHours)
		}
	}
	return nil
}

// RedisEnabled - Redis 사용 여부
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if str := os.Getenv(key); str != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid integer for %s: %q, using %d", key, str, defaultValue)
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if str := os.Getenv(key); str != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(str)); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid bool for %s: %q, using %v", key, str, defaultValue)
	}
	return defaultValue
}

// getList - 콤마 구분 목록 (빈 항목 제거)
func getList(key string, defaultValue []string) []string {
	str := os.Getenv(key)
	if strings.TrimSpace(str) == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(str, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
