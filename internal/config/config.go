package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset and the file exists
const DefaultPath = "configs/config.yaml"

// Config aggregates runtime configuration for the CLI, server and migrator
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Series   SeriesConfig   `yaml:"series"`
	Output   OutputConfig   `yaml:"output"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// DatabaseConfig selects and tunes the result store.
// An empty Driver disables persistence.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // "postgres", "sqlite" or ""
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslMode"`
	Path            string        `yaml:"path"` // sqlite file, ":memory:" allowed
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `yaml:"connMaxIdleTime"`
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Driver != ""
}

// LoggingConfig controls log verbosity
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SeriesConfig names the UVF file the server loads at startup and the
// optional lookup table applied to it
type SeriesConfig struct {
	Path       string `yaml:"path"`
	Table      string `yaml:"table"`
	TableLabel string `yaml:"tableLabel"`
}

// OutputConfig controls where report files are written
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoadConfig reads configuration from a YAML file and environment variables
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(DefaultPath); err == nil {
		if err := hydrateFromFile(cfg, DefaultPath); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	cfg.applyDriverDefaults()

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "discharge",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Output: OutputConfig{
			Dir: ".",
		},
	}
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = parsed
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SERIES_PATH"); v != "" {
		cfg.Series.Path = v
	}
	if v := os.Getenv("SERIES_TABLE"); v != "" {
		cfg.Series.Table = v
	}
	if v := os.Getenv("SERIES_TABLE_LABEL"); v != "" {
		cfg.Series.TableLabel = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
}

// applyDriverDefaults pins SQLite to a single connection; every connection
// to ":memory:" would otherwise see its own empty database
func (c *Config) applyDriverDefaults() {
	if strings.EqualFold(c.Database.Driver, "sqlite") {
		c.Database.Driver = "sqlite"
		c.Database.MaxOpenConns = 1
		c.Database.MaxIdleConns = 1
	}
	if strings.EqualFold(c.Database.Driver, "postgres") {
		c.Database.Driver = "postgres"
	}
}

// Validate ensures the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}

	switch c.Database.Driver {
	case "":
	case "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.New("database.host and database.database are required for postgres")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("database.port out of range: %d", c.Database.Port)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}

	if c.Series.Table != "" && c.Series.TableLabel == "" {
		return errors.New("series.tableLabel is required when series.table is set")
	}

	return nil
}
