// Package config loads process configuration from environment variables.
//
// Both binaries (the dashboard server and profilectl) call Load once at
// startup and pass the pieces they need down explicitly. Nothing reads the
// environment after that.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Log modes.
const (
	LogModeDevelopment = "development"
	LogModeProduction  = "production"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Store    Store
	Analyzer Analyzer
	Log      Log
}

// Server configures the HTTP API and the SPA it serves.
type Server struct {
	Port               int      `env:"PORT"                 envDefault:"8080"`
	StaticDir          string   `env:"STATIC_DIR"           envDefault:"web/dist"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Store selects and configures the document store.
type Store struct {
	Driver            string `env:"STORE_DRIVER"             envDefault:"sqlite"`
	DBPath            string `env:"DB_PATH"                  envDefault:"data/profiles.db"`
	MongoURI          string `env:"MONGO_ATLAS_URI"`
	MongoDB           string `env:"MONGO_DB"                 envDefault:"opencreator"`
	ProfileCollection string `env:"MONGO_PROFILE_COLLECTION" envDefault:"user_workflow_profile"`
}

// Analyzer configures the classification job.
type Analyzer struct {
	APIKey       string `env:"GOOGLE_GENAI_API_KEY"`
	Model        string `env:"GENAI_MODEL"           envDefault:"gemini-2.0-flash"`
	TopWorkflows int    `env:"ANALYZE_TOP_WORKFLOWS" envDefault:"10"`
}

// Log configures the process logger.
type Log struct {
	Mode  string `env:"LOG_MODE"  envDefault:"development"`
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot start with.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Server.Port)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Store.DBPath) == "" {
			return fmt.Errorf("config: DB_PATH is required for the sqlite driver")
		}
	case DriverMongo:
		if strings.TrimSpace(c.Store.MongoURI) == "" {
			return fmt.Errorf("config: MONGO_ATLAS_URI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q (want %s or %s)", c.Store.Driver, DriverSQLite, DriverMongo)
	}

	switch c.Log.Mode {
	case LogModeDevelopment, LogModeProduction:
	default:
		return fmt.Errorf("config: unknown LOG_MODE %q", c.Log.Mode)
	}

	if c.Analyzer.TopWorkflows < 1 {
		return fmt.Errorf("config: ANALYZE_TOP_WORKFLOWS must be positive")
	}
	return nil
}

// RequireAnalyzer checks the settings only the analyze command needs.
func (c Config) RequireAnalyzer() error {
	if strings.TrimSpace(c.Analyzer.APIKey) == "" {
		return fmt.Errorf("config: GOOGLE_GENAI_API_KEY is required to analyze profiles")
	}
	return nil
}
