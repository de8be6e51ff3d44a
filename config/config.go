package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the server needs. It is built once
// in main and handed to components explicitly; nothing reads the
// environment after startup.
type Config struct {
	Port        string
	DatabaseDSN string
	AppURL      string

	JWTSecret           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	ResetTokenTTL       time.Duration
	VerificationCodeTTL time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// Load reads an optional .env file and builds the Config from the
// environment, falling back to development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseDSN: getEnv("DB_DSN", "data_analyzer.db"),
		AppURL:      getEnv("APP_URL", "http://localhost:3000"),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		AccessTokenTTL:      24 * time.Hour,
		RefreshTokenTTL:     7 * 24 * time.Hour,
		ResetTokenTTL:       1 * time.Hour,
		VerificationCodeTTL: 1 * time.Hour,

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnvInt("SMTP_PORT", 2525),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "noreply@abathospital.org"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
