// Package config loads the settings of the usergate CLI client.
//
// Values come from struct defaults, an optional YAML file (-c/-config or
// USERGATE_CONFIG), the environment and finally the short command-line
// flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/usergate/internal/flagx"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerURL: base URL of the REST API.
//   - TokenDB: SQLite file that keeps the session between runs. Empty keeps
//     tokens in memory only.
//   - RequestTimeout: per-request deadline.
//   - PollInterval: refresh period of the watch command.
type Config struct {
	ServerURL      string        `yaml:"server_url" env:"USERGATE_SERVER_URL" env-default:"http://127.0.0.1:3001"`
	TokenDB        string        `yaml:"token_db" env:"USERGATE_TOKEN_DB"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"USERGATE_REQUEST_TIMEOUT" env-default:"10s"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"USERGATE_POLL_INTERVAL" env-default:"30s"`
}

// Load reads path (when not empty) and the environment into a Config.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	return &cfg, nil
}

// LoadConfig resolves the config file from flags or USERGATE_CONFIG, loads
// it and applies the command-line flags on top.
func LoadConfig() (*Config, error) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		path = os.Getenv("USERGATE_CONFIG")
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}
	return cfg, nil
}
