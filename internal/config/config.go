package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type CheckoutMode string

const (
	CheckoutModePersistent CheckoutMode = "persistent"
	CheckoutModeEphemeral  CheckoutMode = "ephemeral"
	CheckoutModeFallback   CheckoutMode = "fallback"
)

var ErrMissingDBHost = errors.New("environment variables not loaded properly: DB_HOST is empty")

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	AppPort string
	AppEnv  string
	AppURL  string

	JWTSecret         string
	InternalSecretKey string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIBase       string

	CheckoutMode CheckoutMode

	RabbitMQURL      string
	RabbitMQExchange string
}

// Load reads the environment (and .env when present) without exiting on failure.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:              os.Getenv("DB_HOST"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBName:              os.Getenv("DB_NAME"),
		DBPort:              os.Getenv("DB_PORT"),
		DBSSLMode:           getEnv("DB_SSLMODE", "disable"),
		AppPort:             getEnv("APP_PORT", "8080"),
		AppEnv:              getEnv("APP_ENV", "development"),
		AppURL:              strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		InternalSecretKey:   os.Getenv("INTERNAL_SECRET_KEY"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeAPIBase:       getEnv("STRIPE_API_BASE", "https://api.stripe.com"),
		RabbitMQURL:         os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange:    getEnv("RABBITMQ_EXCHANGE", "order_exchange"),
	}

	mode, err := parseCheckoutMode(os.Getenv("CHECKOUT_MODE"))
	if err != nil {
		return nil, err
	}
	cfg.CheckoutMode = mode

	if cfg.DBHost == "" && cfg.CheckoutMode != CheckoutModeEphemeral {
		return nil, ErrMissingDBHost
	}

	return cfg, nil
}

func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// PaymentConfigured reports whether the stripe path can open payment sessions.
func (c *Config) PaymentConfigured() bool {
	return c.StripeSecretKey != ""
}

func (c *Config) WebhookConfigured() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

func parseCheckoutMode(raw string) (CheckoutMode, error) {
	switch CheckoutMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CheckoutModeFallback:
		return CheckoutModeFallback, nil
	case CheckoutModePersistent:
		return CheckoutModePersistent, nil
	case CheckoutModeEphemeral:
		return CheckoutModeEphemeral, nil
	default:
		return "", fmt.Errorf("unknown CHECKOUT_MODE %q (use persistent, ephemeral or fallback)", raw)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
