// Package config loads and validates app config from env and an optional .env file using Viper.
//
// Process configuration only. Runtime-tunable values (OTP TTL, lockout
// thresholds, token lifetime, message templates) live in the settings table
// and are read per operation through the settings provider.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "portal-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "portal-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12. Used by the password-reset flow.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// PatientAPIBaseURL is the base URL of the external patient-contact service.
	PatientAPIBaseURL string `mapstructure:"PATIENT_API_BASE_URL"`
	// PatientAPIKey authenticates calls to the patient-contact service.
	PatientAPIKey string `mapstructure:"PATIENT_API_KEY"`

	// SMSGatewayURL is the SMS gateway endpoint for OTP delivery.
	SMSGatewayURL string `mapstructure:"SMS_GATEWAY_URL"`
	// SMSAPIKey authenticates calls to the SMS gateway.
	SMSAPIKey string `mapstructure:"SMS_API_KEY"`
	// SMSSender is the optional sender ID for outbound SMS.
	SMSSender string `mapstructure:"SMS_SENDER"`

	// SMTPHost, SMTPPort, SMTPUsername, SMTPPassword, SMTPFrom configure the mail dialer.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// OutboundTimeout bounds every outbound collaborator call (patient lookup, SMS, email), e.g. "10s".
	OutboundTimeout string `mapstructure:"OUTBOUND_TIMEOUT"`

	// OTLPEndpoint is the OTLP gRPC endpoint for traces and metrics; empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "portal-auth")
	v.SetDefault("JWT_AUDIENCE", "portal-api")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("PATIENT_API_BASE_URL", "")
	v.SetDefault("PATIENT_API_KEY", "")
	v.SetDefault("SMS_GATEWAY_URL", "")
	v.SetDefault("SMS_API_KEY", "")
	v.SetDefault("SMS_SENDER", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("OUTBOUND_TIMEOUT", "10s")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// OutboundCallTimeout parses OutboundTimeout as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) OutboundCallTimeout() time.Duration {
	d, err := time.ParseDuration(c.OutboundTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
