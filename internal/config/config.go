package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. A Config is an
// immutable snapshot: Reload builds a fresh one from the environment
// instead of mutating shared state in place.
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Payment gateway
	Asaas AsaasConfig

	// S3 artifact storage
	S3 S3Config
}

// AsaasConfig holds the payment gateway credential and routing settings.
type AsaasConfig struct {
	APIKey           string
	Environment      string // "sandbox" or "production"
	ProxyURL         string // local reverse proxy keeping the key out of untrusted contexts
	WebhookToken     string // shared token expected on incoming webhook calls
	PlatformWalletID string // process-wide beneficiary wallet
}

// S3Config holds AWS S3 configuration for payout artifact storage.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:           getEnv("ENV", "development"),
		Asaas: AsaasConfig{
			APIKey:           getEnv("ASAAS_API_KEY", ""),
			Environment:      getEnv("ASAAS_ENV", "sandbox"),
			ProxyURL:         getEnv("ASAAS_PROXY_URL", ""),
			WebhookToken:     getEnv("ASAAS_WEBHOOK_TOKEN", ""),
			PlatformWalletID: getEnv("ASAAS_PLATFORM_WALLET_ID", ""),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "recorra-artifacts"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Reload returns a new validated snapshot built from the current
// environment. The receiver is left untouched; callers swap the snapshot
// explicitly (and rebuild the gateway client from it).
func (c *Config) Reload() (*Config, error) {
	return Load()
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.Asaas.APIKey == "" {
		return fmt.Errorf("ASAAS_API_KEY is required")
	}
	if c.Asaas.PlatformWalletID == "" {
		return fmt.Errorf("ASAAS_PLATFORM_WALLET_ID is required")
	}
	if c.Asaas.Environment != "sandbox" && c.Asaas.Environment != "production" {
		return fmt.Errorf("ASAAS_ENV must be 'sandbox' or 'production'")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
