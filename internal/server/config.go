package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds server configuration.
type Config struct {
	Port       int    `yaml:"port" validate:"min=1,max=65535"`
	Bind       string `yaml:"bind" validate:"required"`
	DBUrl      string `yaml:"db_url" validate:"omitempty,url"`
	TLSCert    string `yaml:"tls_cert" validate:"required_with=TLSKey"`
	TLSKey     string `yaml:"tls_key" validate:"required_with=TLSCert"`
	AdminToken string `yaml:"admin_token"`
	// Profile is a search profile file; the built-in profile is used when
	// empty.
	Profile string `yaml:"profile" validate:"omitempty,file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port: 8377,
		Bind: "0.0.0.0",
	}
}

// ConfigPath is where LoadConfig looks for the config file.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".searchbar", "server.yaml")
}

// LoadConfig loads server config from path, falling back to defaults when
// the file does not exist. Environment variables override file values:
// SEARCHBAR_SERVER_PORT, SEARCHBAR_SERVER_BIND, SEARCHBAR_SERVER_DB_URL,
// SEARCHBAR_SERVER_TLS_CERT, SEARCHBAR_SERVER_TLS_KEY,
// SEARCHBAR_SERVER_ADMIN_TOKEN, SEARCHBAR_SERVER_PROFILE.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	// Environment variables override file config
	if v := os.Getenv("SEARCHBAR_SERVER_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SEARCHBAR_SERVER_PORT %q: %w", v, err)
		}
		cfg.Port = n
	}
	if v := os.Getenv("SEARCHBAR_SERVER_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("SEARCHBAR_SERVER_DB_URL"); v != "" {
		cfg.DBUrl = v
	}
	if v := os.Getenv("SEARCHBAR_SERVER_TLS_CERT"); v != "" {
		cfg.TLSCert = v
	}
	if v := os.Getenv("SEARCHBAR_SERVER_TLS_KEY"); v != "" {
		cfg.TLSKey = v
	}
	if v := os.Getenv("SEARCHBAR_SERVER_ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}
	if v := os.Getenv("SEARCHBAR_SERVER_PROFILE"); v != "" {
		cfg.Profile = v
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks the config after flags have been applied.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

// Addr returns the listen address as "bind:port".
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// HasTLS returns true if both TLS cert and key are configured.
func (c Config) HasTLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}
