package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	AWS      AWSConfig
	Share    ShareConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
	RunWorker          bool   // run the share-card worker inside the server process
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/quiz?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds guest token signing settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// GeminiConfig holds the quiz generation endpoint settings.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	TimeoutSec int
}

// AWSConfig holds AWS credentials and the share-card bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ShareBucket     string
}

// ShareConfig controls shareable links and share cards.
type ShareConfig struct {
	BaseURL  string // page that takes ?testId=...
	QRSize   int
	CacheTTL time.Duration // quiz read cache TTL
}

// SessionConfig controls lifecycle session storage.
type SessionConfig struct {
	TTL            time.Duration
	GenerationLock time.Duration
	LockWait       time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Validate reports whether quiz generation can be reached.
func (c GeminiConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if c.Model == "" {
		return fmt.Errorf("GEMINI_MODEL is empty")
	}
	return nil
}

// writeTimeoutMargin is the minimum gap in seconds between the Gemini timeout and the server write timeout.
const writeTimeoutMargin = 30

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 90),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			RunWorker:          getEnvBool("RUN_WORKER", true),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "quiz"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24*30),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			TimeoutSec: getEnvInt("GEMINI_TIMEOUT_SEC", 60),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ShareBucket:     getEnv("AWS_S3_SHARE_BUCKET", "quiz-share-cards"),
		},
		Share: ShareConfig{
			BaseURL:  getEnv("SHARE_BASE_URL", "http://localhost:3000/"),
			QRSize:   getEnvInt("SHARE_QR_SIZE", 256),
			CacheTTL: time.Duration(getEnvInt("QUIZ_CACHE_TTL_MIN", 60)) * time.Minute,
		},
		Session: SessionConfig{
			TTL:            time.Duration(getEnvInt("SESSION_TTL_MIN", 120)) * time.Minute,
			GenerationLock: time.Duration(getEnvInt("GENERATION_LOCK_SEC", 90)) * time.Second,
			LockWait:       time.Duration(getEnvInt("SESSION_LOCK_WAIT_MS", 5000)) * time.Millisecond,
		},
	}
	// a generation must be able to finish and still have its response written
	if minWrite := cfg.Gemini.TimeoutSec + writeTimeoutMargin; cfg.Server.WriteTimeout < minWrite {
		cfg.Server.WriteTimeout = minWrite
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
