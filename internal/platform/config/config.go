// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct. A local '.env' file is loaded first through 'joho/godotenv' when one
exists, so developers can run the server without exporting every variable.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token issuer) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// SMS provider identifiers accepted by SMS_PROVIDER.
const (
	SMSProviderLog    = "log"
	SMSProviderTwilio = "twilio"
)

// Config holds all runtime configuration for the Dobalito API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Session token signing
	SessionSecret     string        `env:"SESSION_SECRET,required"`
	TokenTTL          time.Duration `env:"TOKEN_TTL"           envDefault:"24h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"jwt_token"`
	CookieSecure      bool          `env:"COOKIE_SECURE"       envDefault:"false"`

	// SMS delivery
	SMSProvider      string `env:"SMS_PROVIDER"        envDefault:"log"`
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `env:"TWILIO_FROM_NUMBER"`

	// OTPEchoCode returns the issued code in the send response. Development only.
	OTPEchoCode bool `env:"OTP_ECHO_CODE" envDefault:"false"`

	// CodeCleanupInterval is how often expired verification codes are purged.
	CodeCleanupInterval time.Duration `env:"CODE_CLEANUP_INTERVAL" envDefault:"15m"`

	// Local file storage for avatars
	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
//
// Values already present in the process environment win over the .env file.
func Load(files ...string) (*Config, error) {

	// A missing .env file is normal outside local development.
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks cross-field rules that struct tags cannot express.
func (c *Config) validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("config: SESSION_SECRET must be at least 32 bytes")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}

	switch c.SMSProvider {
	case SMSProviderLog:
		if c.IsProduction() {
			return errors.New("config: SMS_PROVIDER=log cannot be used in production")
		}
	case SMSProviderTwilio:
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFromNumber == "" {
			return errors.New("config: twilio provider requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER")
		}
	default:
		return fmt.Errorf("config: unknown SMS_PROVIDER %q", c.SMSProvider)
	}

	if c.OTPEchoCode && c.IsProduction() {
		return errors.New("config: OTP_ECHO_CODE cannot be enabled in production")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
