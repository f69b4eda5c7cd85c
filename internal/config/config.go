package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"5000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogFormat is "json" or "console".
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// StoreDriver selects the repository backend: "mongo" or "memory".
	StoreDriver    string        `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI       string        `envconfig:"MONGO_URI"`
	MongoDatabase  string        `envconfig:"MONGO_DATABASE" default:"doctorsPortal"`
	ConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`

	JWTSecret string `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`

	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	StripeBaseURL   string `envconfig:"STRIPE_BASE_URL" default:"https://api.stripe.com"`
	Currency        string `envconfig:"PAYMENT_CURRENCY" default:"usd"`

	TextbeltKey string `envconfig:"TEXTBELT_API_KEY"`

	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RateLimit      float64  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateBurst      int      `envconfig:"RATE_LIMIT_BURST" default:"40"`

	ValidateSlots   bool          `envconfig:"BOOKING_VALIDATE_SLOTS" default:"false"`
	OptionsCacheTTL time.Duration `envconfig:"OPTIONS_CACHE_TTL" default:"1m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, dotenv, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}
