package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Scopes    ScopesConfig    `envPrefix:"SCOPES_"`
	Inspect   InspectConfig   `envPrefix:"INSPECT_"`
	Telemetry TelemetryConfig `envPrefix:"OTEL_"`
}

type AppConfig struct {
	Name  string `env:"NAME" envDefault:"scribe"`
	Env   string `env:"ENV" envDefault:"local"` // local | production | testing
	Debug bool   `env:"DEBUG" envDefault:"true"`
}

// ScopesConfig locates the global scope resource namespace.
type ScopesConfig struct {
	Dir    string `env:"DIR" envDefault:"resources/scopes"`
	Active bool   `env:"ACTIVE" envDefault:"true"`
}

// InspectConfig controls the read-only registry inspector.
type InspectConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Addr    string `env:"ADDR" envDefault:":8700"`
}

// TelemetryConfig enables OTLP tracing when Endpoint is set.
type TelemetryConfig struct {
	Endpoint string `env:"ENDPOINT"`
	Service  string `env:"SERVICE" envDefault:"scribe"`
}

// Load reads .env files (if present) and populates a Config from environment
// variables. Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }
