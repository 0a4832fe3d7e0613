// Package config handles configuration for the server component: defaults,
// an optional JSON file, environment variables and command-line flags, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds runtime settings for the usergate server.
//
// Fields:
//   - Env: logging profile, one of local, dev, prod.
//   - HTTPAddr / GRPCAddr: bind addresses for the REST API and the gRPC health service.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey / Issuer: HS256 signing secret and the "iss" claim.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - AllowedOrigins: CORS allow-list.
//   - SeedUsers: create the bootstrap admin and user accounts at startup.
//   - StrictRoleCheck: re-read the caller's role from the store on every request.
//   - S3*: object storage used by the directory export.
type Config struct {
	Env                          string        `env:"APP_ENV"`
	HTTPAddr                     string        `env:"HTTP_ADDR"`
	GRPCAddr                     string        `env:"GRPC_ADDR"`
	DatabaseDSN                  string        `env:"DATABASE_DSN"`
	SecretKey                    string        `env:"JWT_SECRET"`
	Issuer                       string        `env:"JWT_ISSUER"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`
	AllowedOrigins               []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	SeedUsers                    bool          `env:"SEED_USERS"`
	StrictRoleCheck              bool          `env:"STRICT_ROLE_CHECK"`
	ShutdownTimeout              time.Duration `env:"SHUTDOWN_TIMEOUT"`
	S3AccessKey                  string        `env:"S3_ACCESS_KEY"`
	S3SecretKey                  string        `env:"S3_SECRET_KEY"`
	S3Bucket                     string        `env:"S3_BUCKET"`
	S3Region                     string        `env:"S3_REGION"`
	S3BaseEndpoint               string        `env:"S3_BASE_ENDPOINT"`
	ExportURLValidityDuration    time.Duration `env:"EXPORT_URL_TTL"`
}

// LoadDefaults populates Config with development defaults. SecretKey is
// left empty on purpose so a server never starts with a guessable secret.
func (c *Config) LoadDefaults() {
	c.Env = "local"
	c.HTTPAddr = ":3001"
	c.GRPCAddr = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.Issuer = "usergate"
	c.AccessTokenValidityDuration = 7 * 24 * time.Hour
	c.RefreshTokenValidityDuration = 30 * 24 * time.Hour
	c.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:3002", "http://localhost:3003"}
	c.SeedUsers = true
	c.StrictRoleCheck = false
	c.ShutdownTimeout = 10 * time.Second
	c.S3AccessKey = "minioadmin"
	c.S3SecretKey = "minioadmin"
	c.S3Bucket = "usergate-exports"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000"
	c.ExportURLValidityDuration = 15 * time.Minute
}

// Validate rejects settings the server cannot safely start with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("JWT secret is not set (JWT_SECRET or -s)"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("access token lifetime must be positive, got %s", c.AccessTokenValidityDuration))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("refresh token lifetime must be positive, got %s", c.RefreshTokenValidityDuration))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is empty"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then the JSON file, then the
// environment, then command-line flags, and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
