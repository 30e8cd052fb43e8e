package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxWorkers   int

	// Logging
	LogLevel  string
	LogFormat string

	// Image validation and normalization
	MaxImageBytes      int64
	ThumbnailMaxWidth  int
	ThumbnailMaxHeight int
	ThumbnailQuality   int

	// Text recognition
	OCRLanguages   []string
	MaxRetries     int
	RetryBaseDelay time.Duration
	FetchTimeout   time.Duration

	// Object storage
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3AccessKeySecret string

	// Database
	PostgresURL string
}

// LoadConfig loads the application configuration from environment
// variables, reading a .env file from the working directory first when
// one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	cfg := &Config{
		Port:         getEnvInt("PORT", 8080),
		ReadTimeout:  time.Duration(getEnvInt("READ_TIMEOUT_SECONDS", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvInt("WRITE_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxWorkers:   getEnvInt("MAX_WORKERS", 5),

		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogFormat: getEnvString("LOG_FORMAT", "json"),

		MaxImageBytes:      int64(getEnvInt("MAX_IMAGE_BYTES", 10*1024*1024)),
		ThumbnailMaxWidth:  getEnvInt("THUMBNAIL_MAX_WIDTH", 320),
		ThumbnailMaxHeight: getEnvInt("THUMBNAIL_MAX_HEIGHT", 320),
		ThumbnailQuality:   getEnvInt("THUMBNAIL_QUALITY", 80),

		OCRLanguages:   getEnvStringSlice("OCR_LANGUAGES", []string{"eng", "hin"}),
		MaxRetries:     getEnvInt("OCR_MAX_RETRIES", 3),
		RetryBaseDelay: time.Duration(getEnvInt("OCR_RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		FetchTimeout:   time.Duration(getEnvInt("STORAGE_FETCH_TIMEOUT_SECONDS", 30)) * time.Second,

		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          getEnvString("S3_REGION", "ap-south-1"),
		S3Bucket:          getEnvString("S3_BUCKET", "receipts"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),

		PostgresURL: os.Getenv("POSTGRES_DB_URL"),
	}

	validateConfig(cfg)

	return cfg, nil
}

// validateConfig logs warnings for missing critical values. The service
// still starts so that local development without storage works.
func validateConfig(cfg *Config) {
	if cfg.S3AccessKeyID == "" || cfg.S3AccessKeySecret == "" {
		log.Warn().Msg("no S3 credentials provided, image uploads will fail")
	}
	if cfg.PostgresURL == "" {
		log.Warn().Msg("no POSTGRES_DB_URL provided, persistence will fail")
	}
	if cfg.MaxRetries < 1 {
		log.Warn().Int("max_retries", cfg.MaxRetries).Msg("OCR_MAX_RETRIES below 1, using 1")
		cfg.MaxRetries = 1
	}
}

func getEnvString(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).
			Msg("invalid integer environment value, using default")
		return defaultValue
	}

	return value
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
