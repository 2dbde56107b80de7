package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string // PostgreSQL; SQLite is used when empty
	RedisURL    string // push transport and session tokens; in-memory when empty
	SQLitePath  string

	// Accounts listed here are granted the admin role on signup.
	AdminEmails []string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
	}

	// Parse admin emails (comma-separated)
	if admins := os.Getenv("ADMIN_EMAILS"); admins != "" {
		for _, entry := range strings.Split(admins, ",") {
			entry = strings.TrimSpace(strings.ToLower(entry))
			if entry != "" {
				cfg.AdminEmails = append(cfg.AdminEmails, entry)
			}
		}
	}

	// In production, require database and redis URLs
	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsAdminEmail reports whether an email is on the admin list.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(email)
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
