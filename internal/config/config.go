package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr         string `json:"addr"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Database       string `json:"database"`
	User           string `json:"user"`
	Password       string `json:"password"`
	SSLMode        string `json:"sslmode"`
	ConnectTimeout int    `json:"connect_timeout"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10,
			WriteTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "postgres",
			User:           "postgres",
			SSLMode:        "require",
			ConnectTimeout: 10,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("Failed to close config file: %v", err)
		}
	}()

	config := DefaultConfig()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides configuration from environment variables.
// PGPROBE_* variables take the server settings; the database settings also
// honor the standard PG* variables recognized by libpq-style tooling.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PGPROBE_ADDR"); v != "" {
		c.Server.Addr = v
	}

	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					*dst = n
				} else {
					log.Printf("Ignoring invalid value for %s: %q", key, v)
				}
				return
			}
		}
	}

	setString(&c.Database.Host, "PGPROBE_DB_HOST", "PGHOST")
	setInt(&c.Database.Port, "PGPROBE_DB_PORT", "PGPORT")
	setString(&c.Database.Database, "PGPROBE_DB_NAME", "PGDATABASE")
	setString(&c.Database.User, "PGPROBE_DB_USER", "PGUSER")
	setString(&c.Database.Password, "PGPROBE_DB_PASSWORD", "PGPASSWORD")
	setString(&c.Database.SSLMode, "PGPROBE_DB_SSLMODE", "PGSSLMODE")
	setInt(&c.Database.ConnectTimeout, "PGPROBE_DB_CONNECT_TIMEOUT")
}

// MergeWithFlags merges command-line flag values into the configuration
// Command-line flags take precedence over config file and environment values
func (c *Config) MergeWithFlags(addr, dbHost string, dbPort int, dbName, dbUser, dbPass, sslMode string) {
	if addr != "" {
		c.Server.Addr = addr
	}
	if dbHost != "" {
		c.Database.Host = dbHost
	}
	if dbPort > 0 {
		c.Database.Port = dbPort
	}
	if dbName != "" {
		c.Database.Database = dbName
	}
	if dbUser != "" {
		c.Database.User = dbUser
	}
	if dbPass != "" {
		c.Database.Password = dbPass
	}
	if sslMode != "" {
		c.Database.SSLMode = sslMode
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 {
		return fmt.Errorf("database port must be positive")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	return nil
}

// DSN returns the keyword/value connection string for the pgx driver
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode, d.ConnectTimeout)
}

// Redacted returns a human-readable rendering with the password masked,
// safe for logs and the connection details panel
func (d DatabaseConfig) Redacted() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=******** dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Database, d.SSLMode)
}
