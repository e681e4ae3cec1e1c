package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported notification store drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	HTTPAddr          string
	MongoURI          string
	MongoDatabase     string
	NotificationStore string
	DatabaseURL       string
	JWTSecret         string

	TranslateAPIURL     string
	TranslateAPIKey     string
	TranslateTimeout    time.Duration
	TranslateRetryDelay time.Duration

	ExpoPushURL     string
	ExpoAccessToken string
	PushTimeout     time.Duration

	DefaultLanguage      string
	CronSpecReminderScan string
	ReminderWindow       time.Duration
	ReminderScanTimeout  time.Duration

	// TelegramToken enables the admin bot when set.
	TelegramToken   string
	AdminTelegramID int64
	LogLevel        string
	Environment     string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.NotificationStore = strings.ToLower(getEnv("NOTIFICATION_STORE", StoreMongo))
	switch cfg.NotificationStore {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid NOTIFICATION_STORE %q (want mongo, postgres or memory)", cfg.NotificationStore)
	}

	cfg.MongoURI = os.Getenv("MONGO_URI")
	if cfg.MongoURI == "" && cfg.NotificationStore != StoreMemory {
		return nil, fmt.Errorf("MONGO_URI is not set")
	}
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", "schoolbridge")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.NotificationStore == StorePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set (required by NOTIFICATION_STORE=postgres)")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	cfg.TranslateAPIURL = os.Getenv("TRANSLATE_API_URL")
	if cfg.TranslateAPIURL == "" {
		return nil, fmt.Errorf("TRANSLATE_API_URL is not set")
	}
	cfg.TranslateAPIKey = os.Getenv("TRANSLATE_API_KEY")
	if cfg.TranslateTimeout, err = getDuration("TRANSLATE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.TranslateRetryDelay, err = getDuration("TRANSLATE_RETRY_DELAY", time.Second); err != nil {
		return nil, err
	}

	cfg.ExpoPushURL = getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send")
	cfg.ExpoAccessToken = os.Getenv("EXPO_ACCESS_TOKEN")
	if cfg.PushTimeout, err = getDuration("PUSH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.DefaultLanguage = strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en"))
	cfg.CronSpecReminderScan = getEnv("CRON_SPEC_REMINDER_SCAN", "@every 30m")
	if cfg.ReminderWindow, err = getDuration("REMINDER_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ReminderScanTimeout, err = getDuration("REMINDER_SCAN_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
