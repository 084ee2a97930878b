package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	switch c.Server.Mode {
	case "stdio", "http":
		// valid
	default:
		errs = append(errs, fmt.Errorf("server.mode must be \"stdio\" or \"http\", got %q", c.Server.Mode))
	}

	if c.Server.Mode == "http" && c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0 when server.mode is \"http\", got %d", c.Server.Port))
	}

	if c.Server.AdminPort < 0 {
		errs = append(errs, fmt.Errorf("server.admin_port must be >= 0, got %d", c.Server.AdminPort))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	switch c.Auth.Type {
	case "none", "apikey", "jwt":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "jwt" && c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
	}

	for name, p := range c.Pipelines {
		if p.TimeoutMs < 0 {
			errs = append(errs, fmt.Errorf("pipelines.%s.timeout_ms must be >= 0, got %d", name, p.TimeoutMs))
		}
	}

	return errors.Join(errs...)
}
