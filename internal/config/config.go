// Package config resolves tool configuration from defaults, an optional YAML
// config file, and NCP_* environment variables. CLI flags override all of
// these; that precedence is applied at the command layer.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the send and recv commands.
type Config struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	Transport string `yaml:"transport"` // "tcp" or "quic"
	Checksum  string `yaml:"checksum"`  // "xxh64" or "none"
	Overwrite string `yaml:"overwrite"` // "ask", "yes" or "no"
	Retries   int    `yaml:"retries"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Host:      "0.0.0.0",
		LogLevel:  "info",
		Transport: "tcp",
		Checksum:  "xxh64",
		Overwrite: "ask",
		Retries:   3,
	}
}

// Load resolves the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NCP_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("NCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("NCP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NCP_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("NCP_CHECKSUM"); v != "" {
		c.Checksum = v
	}
	if v := os.Getenv("NCP_OVERWRITE"); v != "" {
		c.Overwrite = v
	}
	if v := os.Getenv("NCP_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retries = n
		}
	}
}

// Validate rejects settings no command could run with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Transport {
	case "tcp", "quic":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Checksum {
	case "xxh64", "none":
	default:
		return fmt.Errorf("unknown checksum mode %q", c.Checksum)
	}
	switch c.Overwrite {
	case "ask", "yes", "no":
	default:
		return fmt.Errorf("unknown overwrite policy %q", c.Overwrite)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	return nil
}
