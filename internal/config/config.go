package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	DBConn        string
	LogLevel      string
	JWTSecret     string
	CBRURL        string
	EncryptionKey string
	BaseCurrency  string
	AggregateCron string
	AlertCron     string
	QuoteTTL      time.Duration
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SenderEmail   string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=finhealth sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		CBRURL:        getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		BaseCurrency:  getEnv("BASE_CURRENCY", "INR"),
		AggregateCron: getEnv("AGGREGATE_CRON", "0 */6 * * *"),
		AlertCron:     getEnv("ALERT_CRON", "0 9 * * *"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "25"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", "noreply@finhealth.local"),
	}

	ttl, err := time.ParseDuration(getEnv("QUOTE_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_TTL: %w", err)
	}
	cfg.QuoteTTL = ttl

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	// the in-memory store keeps nothing at rest
	if cfg.EncryptionKey == "" && !cfg.InMemory() {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required unless DB_CONN=memory")
	}
	if cfg.EncryptionKey != "" {
		if _, err := cfg.EncryptionKeyBytes(); err != nil {
			return nil, err
		}
	}
	if len(cfg.BaseCurrency) != 3 {
		return nil, fmt.Errorf("BASE_CURRENCY must be a 3-letter code, got %q", cfg.BaseCurrency)
	}

	return cfg, nil
}

// InMemory reports whether records are kept in process memory instead of Postgres
func (c *Config) InMemory() bool {
	return c.DBConn == "memory"
}

// EncryptionKeyBytes decodes the hex encryption key into 32 raw bytes
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
