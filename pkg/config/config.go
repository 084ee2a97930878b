// Package config provides unified configuration for the glam server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (GLAM_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the glam server.
type Config struct {
	Server        ServerConfig              `yaml:"server"`
	Enhancers     map[string]EnhancerConfig `yaml:"enhancers"`
	Pipelines     map[string]PipelineConfig `yaml:"pipelines"`
	Storage       StorageConfig             `yaml:"storage"`
	Auth          AuthConfig                `yaml:"auth"`
	Observability ObservabilityConfig       `yaml:"observability"`
	Debug         DebugConfig               `yaml:"debug"`
}

// ServerConfig holds transport and admin endpoint settings.
type ServerConfig struct {
	// Mode selects the MCP transport: "stdio" or "http".
	Mode string `yaml:"mode"` // default: "stdio"

	// Port serves the MCP streamable HTTP transport when mode is "http".
	Port int `yaml:"port"` // default: 8080

	// AdminPort serves /healthz, /metrics and the registry endpoints.
	// 0 disables the admin server.
	AdminPort int `yaml:"admin_port"` // default: 8081

	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// EnhancerConfig holds per-enhancer overrides keyed by registered name.
type EnhancerConfig struct {
	// Enabled toggles the enhancer. Nil keeps the enhancer's default.
	Enabled *bool `yaml:"enabled"`

	// Config is shallow-merged into the enhancer's defaults.
	Config map[string]any `yaml:"config"`
}

// PipelineConfig describes one pipeline composition.
type PipelineConfig struct {
	// Enhancers selects and orders the members by registered name.
	// Empty selects every enabled enhancer.
	Enhancers []string `yaml:"enhancers"`

	Parallel bool `yaml:"parallel"`

	// ContinueOnError defaults to true when nil.
	ContinueOnError *bool `yaml:"continue_on_error"`

	// TimeoutMs bounds each enhancer run. 0 uses the built-in default.
	TimeoutMs int `yaml:"timeout_ms"`
}

// StorageConfig holds team activity store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds admin endpoint authentication settings.
type AuthConfig struct {
	Type    string         `yaml:"type"`     // "none", "apikey", or "jwt", default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys"` // API key entries for type=apikey
	JWT     JWTConfig      `yaml:"jwt"`      // JWT settings for type=jwt
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"` // _file variant for key
	Subject string `yaml:"subject"`
}

// JWTConfig holds HS256 bearer token settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`
}

// DebugConfig holds category debug logging settings. Environment
// variables GLAM_DEBUG and GLAM_LOG_LEVEL override both fields.
type DebugConfig struct {
	// Categories is a comma-separated list, e.g. "pipeline,storage",
	// or "all".
	Categories string `yaml:"categories"`

	// Level is the slog level name. Default: "INFO".
	Level string `yaml:"level"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Mode:         "stdio",
			Port:         8080,
			AdminPort:    8081,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
