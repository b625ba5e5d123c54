package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config keeps runtime settings for both binaries.
type Config struct {
	Port           int
	DatabaseDriver string
	DatabaseURL    string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	ReminderInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// JWT_SECRET is the only required value.
func Load() (Config, error) {
	cfg := Config{
		Port:             8080,
		DatabaseDriver:   strings.TrimSpace(os.Getenv("DATABASE_DRIVER")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:   parseDuration(os.Getenv("ACCESS_TOKEN_TTL"), 15*time.Minute),
		RefreshTokenTTL:  parseDuration(os.Getenv("REFRESH_TOKEN_TTL"), 7*24*time.Hour),
		SMTPHost:         strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPPort:         parseInt(os.Getenv("SMTP_PORT"), 587),
		SMTPUsername:     strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		MailFrom:         strings.TrimSpace(os.Getenv("MAIL_FROM")),
		ReminderInterval: parseDuration(os.Getenv("REMINDER_INTERVAL"), time.Minute),
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "sqlite"
	}
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return cfg, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == "postgres" {
			return cfg, fmt.Errorf("DATABASE_URL is required for postgres")
		}
		cfg.DatabaseURL = "todoapp.db"
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = "noreply@todoapp.local"
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
