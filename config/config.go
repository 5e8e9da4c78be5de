// config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the service
type Config struct {
	Env  string
	Port string

	DBDriver    string // postgres | sqlite
	DatabaseURL string

	JWTSecret      string
	AccessTokenTTL time.Duration
	ServiceToken   string // admin routes
	AllowedOrigins []string

	// XP economy
	DefaultCategoryID uint
	JournalXP         int64
	TaskXP            int64

	// Notifications (empty AMQPURL = log only)
	AMQPURL            string
	NotificationQueue  string
	NotificationBuffer int

	R2 R2Config

	RecalcInterval time.Duration

	LogLevel  string
	LogFormat string
}

// R2Config is optional; Enabled() is false when any credential is missing
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

// Load reads .env (if present) and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "5200"),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenTTL:     time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 30)) * time.Minute,
		ServiceToken:       os.Getenv("ADMIN_SERVICE_TOKEN"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		DefaultCategoryID:  uint(getEnvInt("DEFAULT_CATEGORY_ID", 1)),
		JournalXP:          int64(getEnvInt("JOURNAL_XP", 20)),
		TaskXP:             int64(getEnvInt("TASK_XP", 10)),
		AMQPURL:            os.Getenv("AMQP_URL"),
		NotificationQueue:  getEnv("NOTIFICATION_QUEUE", "seikatsu.notifications"),
		NotificationBuffer: getEnvInt("NOTIFICATION_BUFFER", 256),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
		RecalcInterval: time.Duration(getEnvInt("RECALC_INTERVAL_HOURS", 24)) * time.Hour,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		if c.DBDriver == "postgres" {
			return fmt.Errorf("DATABASE_URL environment variable not set")
		}
		c.DatabaseURL = "seikatsu.db"
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET environment variable not set")
		}
		log.Println("⚠️  JWT_SECRET not set, using insecure development secret")
		c.JWTSecret = "dev-secret-change-me"
	}
	if c.DefaultCategoryID == 0 {
		return fmt.Errorf("DEFAULT_CATEGORY_ID must be positive")
	}
	if c.JournalXP <= 0 || c.TaskXP <= 0 {
		return fmt.Errorf("JOURNAL_XP and TASK_XP must be positive")
	}
	if c.NotificationBuffer <= 0 {
		c.NotificationBuffer = 256
	}
	if c.RecalcInterval <= 0 {
		c.RecalcInterval = 24 * time.Hour
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev" || c.Env == "test"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a number, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

// splitList turns "a, b ,c" into [a b c]
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
