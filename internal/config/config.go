// Package config handles the server configuration: defaults, an optional
// YAML file and environment overrides.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for the YAML config file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Identity IdentityConfig `yaml:"identity"`
	Resume   ResumeConfig   `yaml:"resume"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the SSH listener and session lifetime.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`      // 0 disables
	MaxSession       time.Duration `yaml:"max_session"`       // 0 disables
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"` // 0 disables
}

// IdentityConfig locates the persistent host key.
type IdentityConfig struct {
	KeyPath string `yaml:"key_path"` // empty: ephemeral key per process
}

// ResumeConfig locates the résumé document.
type ResumeConfig struct {
	Path string `yaml:"path"` // empty: embedded document
}

// LogConfig controls event logging.
type LogConfig struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	Path  string `yaml:"path"`  // empty: stderr
}

// Environment variable names.
const (
	EnvHost             = "RESUME_SSH_HOST"
	EnvPort             = "RESUME_SSH_PORT"
	EnvIdleTimeout      = "RESUME_SSH_IDLE_TIMEOUT"
	EnvMaxSession       = "RESUME_SSH_MAX_SESSION"
	EnvHandshakeTimeout = "RESUME_SSH_HANDSHAKE_TIMEOUT"
	EnvHostKeyPath      = "RESUME_SSH_HOST_KEY_PATH"
	EnvResumePath       = "RESUME_SSH_RESUME_PATH"
	EnvLogLevel         = "RESUME_SSH_LOG_LEVEL"
	EnvLogPath          = "RESUME_SSH_LOG_PATH"
)

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             2222,
			HandshakeTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ReadConfig reads the YAML file at path over the defaults, so keys missing
// from the file keep their default values.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Key: "config", Err: fmt.Errorf("reading config: %w", err)}
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigurationError{Key: "config", Err: fmt.Errorf("parsing config: %w", err)}
	}

	return cfg, nil
}

// WriteConfig writes cfg as YAML to path.
func WriteConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Load builds the effective configuration: defaults, then the file at path
// (if path is non-empty), then environment variables from lookup. The result
// is validated.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = ReadConfig(path); err != nil {
			return nil, err
		}
	}
	if lookup != nil {
		if err := cfg.ApplyEnv(lookup); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. Pass os.LookupEnv
// in production. Set-but-empty variables are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvHost); ok {
		c.Server.Host = v
	}
	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigurationError{Key: EnvPort, Err: fmt.Errorf("invalid port %q", v)}
		}
		c.Server.Port = port
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvIdleTimeout, &c.Server.IdleTimeout},
		{EnvMaxSession, &c.Server.MaxSession},
		{EnvHandshakeTimeout, &c.Server.HandshakeTimeout},
	}
	for _, d := range durations {
		v, ok := get(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigurationError{Key: d.key, Err: fmt.Errorf("invalid duration %q", v)}
		}
		*d.dst = parsed
	}
	if v, ok := get(EnvHostKeyPath); ok {
		c.Identity.KeyPath = v
	}
	if v, ok := get(EnvResumePath); ok {
		c.Resume.Path = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := get(EnvLogPath); ok {
		c.Log.Path = v
	}
	return nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return &ConfigurationError{Key: "server.host", Err: fmt.Errorf("host is empty")}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ConfigurationError{Key: "server.port", Err: fmt.Errorf("port %d out of range 1-65535", c.Server.Port)}
	}
	if c.Server.IdleTimeout < 0 {
		return &ConfigurationError{Key: "server.idle_timeout", Err: fmt.Errorf("negative duration %s", c.Server.IdleTimeout)}
	}
	if c.Server.MaxSession < 0 {
		return &ConfigurationError{Key: "server.max_session", Err: fmt.Errorf("negative duration %s", c.Server.MaxSession)}
	}
	if c.Server.HandshakeTimeout < 0 {
		return &ConfigurationError{Key: "server.handshake_timeout", Err: fmt.Errorf("negative duration %s", c.Server.HandshakeTimeout)}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigurationError{Key: "log.level", Err: fmt.Errorf("unknown level %q", c.Log.Level)}
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
