package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

type Config struct {
	// Gateway credentials and endpoints.
	APIKey     string
	SecretKey  string
	MerchantID string
	BaseURL    string

	Environment string
	ReturnURL   string
	CancelURL   string
	WebhookURL  string

	// Key used to verify inbound webhook signatures. Distinct from the
	// gateway secret used to sign outbound requests.
	HMACVerificationKey string

	// Infrastructure.
	DatabaseURL    string
	RedisURL       string
	KafkaBrokers   string
	NatsURL        string
	JaegerEndpoint string
	Port           string

	// Entitlement period granted per activated plan, in days.
	PlanDurationDays int
}

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.micuentaweb.pe"
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = EnvSandbox
	}

	planDays := 365
	if v := os.Getenv("PLAN_DURATION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			planDays = n
		}
	}

	return &Config{
		APIKey:              os.Getenv("API_KEY"),
		SecretKey:           os.Getenv("SECRET_KEY"),
		MerchantID:          os.Getenv("MERCHANT_ID"),
		BaseURL:             baseURL,
		Environment:         environment,
		ReturnURL:           os.Getenv("RETURN_URL"),
		CancelURL:           os.Getenv("CANCEL_URL"),
		WebhookURL:          os.Getenv("WEBHOOK_URL"),
		HMACVerificationKey: os.Getenv("HMAC_VERIFICATION_KEY"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		KafkaBrokers:        os.Getenv("KAFKA_BROKERS"),
		NatsURL:             os.Getenv("NATS_URL"),
		JaegerEndpoint:      os.Getenv("JAEGER_ENDPOINT"),
		Port:                port,
		PlanDurationDays:    planDays,
	}
}

// Validate rejects configurations the service must not start with.
// Webhook verification without a key is only tolerated in sandbox;
// production requires HMAC_VERIFICATION_KEY so that skipped
// authentication can never happen silently where money moves.
func (c *Config) Validate() error {
	if c.Environment != EnvSandbox && c.Environment != EnvProduction {
		return fmt.Errorf("ENVIRONMENT must be %q or %q, got %q", EnvSandbox, EnvProduction, c.Environment)
	}
	if c.Environment == EnvProduction && c.HMACVerificationKey == "" {
		return fmt.Errorf("HMAC_VERIFICATION_KEY is required in production: unsigned webhooks would be accepted")
	}
	return nil
}

// VerificationEnabled reports whether inbound webhook signatures are
// checked at all.
func (c *Config) VerificationEnabled() bool {
	return c.HMACVerificationKey != ""
}
