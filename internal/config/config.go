package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ricardolopes/holdings-backend/internal/logger"
)

// Config holds the main runtime configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  logger.Config  `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	APIToken string `yaml:"apiToken"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode"`
}

// ConnString builds the lib/pq connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:     ":8080",
			APIToken: "dev-token",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "holdings",
			SSLMode: "disable",
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env
// vars if present. With an empty path the defaults are used as the base.
func LoadWithEnvOverrides(path string) (Config, error) {
	var cfg Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		cfg, err = Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if v := os.Getenv("HOLDINGS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("HOLDINGS_API_TOKEN"); v != "" {
		cfg.Server.APIToken = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present.
func Validate(cfg Config) error {
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.Server.APIToken == "" {
		return errors.New("server.apiToken is required (or HOLDINGS_API_TOKEN)")
	}
	if cfg.Database.Host == "" || cfg.Database.Port == "" {
		return errors.New("database.host and database.port are required")
	}
	if cfg.Database.User == "" || cfg.Database.Name == "" {
		return errors.New("database.user and database.name are required")
	}
	return nil
}
