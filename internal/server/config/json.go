package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/usergate/internal/flagx"
	"github.com/dmitrijs2005/usergate/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either strings such as "168h" or integer nanoseconds. Pointer fields tell
// "absent" apart from a zero value.
type JsonConfig struct {
	Env                          string          `json:"env"`
	HTTPAddr                     string          `json:"http_addr"`
	GRPCAddr                     string          `json:"grpc_addr"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	Issuer                       string          `json:"issuer"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	AllowedOrigins               []string        `json:"allowed_origins"`
	SeedUsers                    *bool           `json:"seed_users"`
	StrictRoleCheck              *bool           `json:"strict_role_check"`
	ShutdownTimeout              *timex.Duration `json:"shutdown_timeout"`
	S3AccessKey                  string          `json:"s3_access_key"`
	S3SecretKey                  string          `json:"s3_secret_key"`
	S3Bucket                     string          `json:"s3_bucket"`
	S3Region                     string          `json:"s3_region"`
	S3BaseEndpoint               string          `json:"s3_base_endpoint"`
	ExportURLValidityDuration    *timex.Duration `json:"export_url_validity_duration"`
}

// parseJSON loads the file named by -c/-config, if any, and copies every
// field present in it onto config.
func parseJSON(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	setString(&config.Env, c.Env)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.ExportURLValidityDuration != nil {
		config.ExportURLValidityDuration = c.ExportURLValidityDuration.Duration
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.SeedUsers != nil {
		config.SeedUsers = *c.SeedUsers
	}
	if c.StrictRoleCheck != nil {
		config.StrictRoleCheck = *c.StrictRoleCheck
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
