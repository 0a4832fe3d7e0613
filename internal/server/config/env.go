package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// portEnv carries the bare PORT variable used by most hosting platforms.
type portEnv struct {
	Port string `env:"PORT"`
}

// parseEnv overlays variables that are set; unset variables keep the
// values already in cfg.
func parseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	var p portEnv
	if err := env.Parse(&p); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if p.Port != "" {
		cfg.HTTPAddr = ":" + p.Port
	}
	return nil
}
