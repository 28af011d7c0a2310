// Package config loads the sessfile configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the main sessfile configuration
type Config struct {
	// Storage
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Server identity reported to MCP clients
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Retention
	Retention RetentionConfig `json:"retention" mapstructure:"retention"`

	// Observability
	Observability ObservabilityConfig `json:"observability" mapstructure:"observability"`
}

// StorageConfig holds backing-file settings
type StorageConfig struct {
	// Path is the backing session file. Empty selects in-memory mode.
	Path string `json:"path" mapstructure:"path"`
	// Watch enables the fsnotify reload hint.
	Watch bool `json:"watch" mapstructure:"watch"`
}

// ServerConfig identifies the tool server and the session it serves
type ServerConfig struct {
	Name         string `json:"name" mapstructure:"name"`
	Instructions string `json:"instructions" mapstructure:"instructions"`
	// SessionID is the session the stdio server binds its tools to.
	SessionID string `json:"session_id" mapstructure:"session_id"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// RetentionConfig holds scheduled-pruning settings for the serve command
type RetentionConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

// ObservabilityConfig holds metrics settings for the serve command
type ObservabilityConfig struct {
	// MetricsAddr is the listen address for the Prometheus endpoint,
	// e.g. "127.0.0.1:9137". Empty disables the listener.
	MetricsAddr string `json:"metrics_addr" mapstructure:"metrics_addr"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	dataDir := ".sessfile"
	if err == nil {
		dataDir = filepath.Join(home, ".sessfile")
	}

	return &Config{
		Storage: StorageConfig{
			Path:  filepath.Join(dataDir, "sessions.json"),
			Watch: false,
		},
		Server: ServerConfig{
			Name:      "sessfile",
			SessionID: "default",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: false,
		},
		Retention: RetentionConfig{
			Enabled:  false,
			Schedule: "@daily",
		},
	}
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server name cannot be empty")
	}
	if c.Server.SessionID == "" {
		return fmt.Errorf("server session_id cannot be empty")
	}
	if c.Retention.Enabled && c.Retention.Schedule == "" {
		return fmt.Errorf("retention schedule cannot be empty when retention is enabled")
	}
	return nil
}
