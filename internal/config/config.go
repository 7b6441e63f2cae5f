// Package config loads the service configuration (YAML plus environment
// overrides) shared by the API server and the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server ServerConfig `yaml:"server"`
	Solver SolverConfig `yaml:"solver"`
	Store  StoreConfig  `yaml:"store"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

type SolverConfig struct {
	// TimeLimitSeconds bounds one solve; 0 means no limit.
	TimeLimitSeconds float64 `yaml:"time_limit_seconds"`
}

type StoreConfig struct {
	// Path is the SQLite database file for saved runs. Empty disables
	// persistence.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
	}
}

// Load reads a YAML configuration file, applies environment overrides, and
// validates the result. An empty path yields the default config with
// environment overrides only.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return nil, err
		}
	}
	applyEnv(c)
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port %q is not a number", c.Server.Port)
	}
	if c.Solver.TimeLimitSeconds < 0 {
		return errors.New("solver.time_limit_seconds must not be negative")
	}
	return nil
}

// applyEnv overlays environment variables onto the loaded config so that
// deployments can override the file without editing it.
func applyEnv(c *Config) {
	if v := os.Getenv("API_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("API_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("RUNS_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("SOLVER_TIME_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Solver.TimeLimitSeconds = f
		}
	}
}
