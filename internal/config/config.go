package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables
type Config struct {
	Database DatabaseConfig
	Steam    SteamConfig
	ProtonDB ProtonDBConfig
	Sync     SyncConfig
	Log      LogConfig
	Server   ServerConfig
}

// DatabaseConfig selects the local store. postgres:// URLs use PostgreSQL,
// anything else is a SQLite file path.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" default:"./games.db" validate:"required"`
}

// SteamConfig holds Steam Web API settings
type SteamConfig struct {
	BaseURL string        `envconfig:"STEAM_API_URL" default:"https://api.steampowered.com" validate:"required,url"`
	Timeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" validate:"gt=0"`
}

// ProtonDBConfig holds ProtonDB settings
type ProtonDBConfig struct {
	BaseURL          string        `envconfig:"PROTONDB_API_URL" default:"https://www.protondb.com" validate:"required,url"`
	Timeout          time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" validate:"gt=0"`
	RateLimit        float64       `envconfig:"PROTONDB_RATE_LIMIT" default:"5" validate:"gte=0"`
	BreakerThreshold uint32        `envconfig:"PROTONDB_BREAKER_THRESHOLD" default:"5"`
}

// SyncConfig holds sync orchestration settings
type SyncConfig struct {
	Concurrency int `envconfig:"SYNC_CONCURRENCY" default:"1" validate:"gte=1,lte=32"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=json console"`
}

// ServerConfig holds settings for the read-only JSON server
type ServerConfig struct {
	Port int `envconfig:"PORT" default:"8080" validate:"gte=1,lte=65535"`
}

// Address returns the listen address for the server
func (s *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
