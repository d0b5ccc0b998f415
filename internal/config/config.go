// Package config loads the application configuration from a YAML file with
// environment-variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hometrics/market-ingester/internal/metrics"
	"github.com/hometrics/market-ingester/internal/pipeline"
)

// Config represents the application configuration.
type Config struct {
	Service struct {
		Name       string `yaml:"name"`
		HealthPort int    `yaml:"health_port"`
	} `yaml:"service"`

	Postgres Postgres `yaml:"postgres"`

	Pipeline pipeline.Config `yaml:"pipeline"`

	Fetch struct {
		RawDataDir string `yaml:"raw_data_dir"`
		State      string `yaml:"state"`        // state code for Redfin filtering
		FREDAPIKey string `yaml:"fred_api_key"` // empty = deterministic sample series
	} `yaml:"fetch"`

	QueryAPI struct {
		Port int `yaml:"port"`
	} `yaml:"queryapi"`

	Metrics metrics.Config `yaml:"metrics"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Postgres holds store connection settings.
type Postgres struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Database      string `yaml:"database"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	SSLMode       string `yaml:"sslmode"`
	MaxConns      int32  `yaml:"max_conns"`
	RecordTimeout int    `yaml:"record_timeout_seconds"`
}

// Load reads the YAML file at path, applies env overrides and defaults.
// A missing file is not an error: defaults plus env are enough to run.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Postgres.Port = port
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Postgres.Database = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Postgres.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.Fetch.FREDAPIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "market-ingester"
	}
	if c.Service.HealthPort == 0 {
		c.Service.HealthPort = 8088
	}
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.Database == "" {
		c.Postgres.Database = "real_estate_db"
	}
	if c.Postgres.User == "" {
		c.Postgres.User = "postgres"
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
	if c.Postgres.MaxConns == 0 {
		c.Postgres.MaxConns = 10
	}
	if c.Postgres.RecordTimeout == 0 {
		c.Postgres.RecordTimeout = 10
	}
	if c.Fetch.RawDataDir == "" {
		c.Fetch.RawDataDir = "data/raw"
	}
	if c.Fetch.State == "" {
		c.Fetch.State = "FL"
	}
	if c.QueryAPI.Port == 0 {
		c.QueryAPI.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Pipeline.ApplyDefaults()
	c.Metrics.ApplyDefaults()
}

// ConnString returns the Postgres connection string.
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Database,
		c.Postgres.SSLMode,
	)
}
