package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries all process-level settings. Everything comes from the
// environment (optionally seeded from a .env file); per-source sync settings
// live in the database instead, editable from the dashboard.
type Config struct {
	Port        string
	DatabaseURL string
	CORSOrigins []string

	JWTSecret   string
	AdminSecret string

	SyncIntervalMin int
	BootSync        bool

	GoogleCredentialsFile string

	GraphTenantID     string
	GraphClientID     string
	GraphClientSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

// Load reads configuration from the environment. A missing .env file is fine;
// a missing DATABASE_URL is not, since nothing works without storage.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Print("no .env file found, using environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminSecret: os.Getenv("ADMIN_SECRET"),

		SyncIntervalMin: getEnvInt("SYNC_INTERVAL_MIN", 10),
		BootSync:        getEnvBool("BOOT_SYNC", true),

		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),

		GraphTenantID:     os.Getenv("GRAPH_TENANT_ID"),
		GraphClientID:     os.Getenv("GRAPH_CLIENT_ID"),
		GraphClientSecret: os.Getenv("GRAPH_CLIENT_SECRET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "tender-board@avenir.example"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
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
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
