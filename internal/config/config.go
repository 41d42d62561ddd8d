// Package config provides configuration types and defaults for svcreg.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/svcreg/internal/log"
	"github.com/zjrosen/svcreg/internal/tracing"
)

// RegistryConfig holds settings for the file-backed registry itself.
type RegistryConfig struct {
	// Root is the directory holding definition files.
	// Default: ./services
	Root string `mapstructure:"root"`

	// Format selects the definition file format.
	// Valid values: "json" (default), "yaml"
	Format string `mapstructure:"format"`

	// Watch enables filesystem watching so external edits are
	// reflected without a restart.
	Watch bool `mapstructure:"watch"`
}

// ReplicationConfig holds settings for the replication strategy.
type ReplicationConfig struct {
	// Mode selects the strategy.
	// Valid values: "none" (default), "memory", "sqlite"
	Mode string `mapstructure:"mode"`

	// SQLitePath is the database file for "sqlite" mode.
	SQLitePath string `mapstructure:"sqlite_path"`

	// CacheTTL bounds how long "memory" mode keeps entries.
	// Default: 5m
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Config holds all configuration options for svcreg.
type Config struct {
	Registry    RegistryConfig    `mapstructure:"registry"`
	Replication ReplicationConfig `mapstructure:"replication"`
	Tracing     tracing.Config    `mapstructure:"tracing"`

	// Debug enables file logging.
	Debug bool `mapstructure:"debug"`

	// LogPath overrides the debug log location.
	// Default: ~/.config/svcreg/debug.log
	LogPath string `mapstructure:"log_path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Registry: RegistryConfig{
			Root:   "./services",
			Format: "json",
			Watch:  false,
		},
		Replication: ReplicationConfig{
			Mode:     "none",
			CacheTTL: 5 * time.Minute,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// DefaultLogFilePath returns the default path for the debug log.
// Returns ~/.config/svcreg/debug.log or empty string if home dir unavailable.
func DefaultLogFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "svcreg", "debug.log")
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/svcreg/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "svcreg", "traces", "traces.jsonl")
}

// ValidateRegistry checks registry configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateRegistry(reg RegistryConfig) error {
	switch reg.Format {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("registry.format must be \"json\" or \"yaml\", got %q", reg.Format)
	}
	return nil
}

// ValidateReplication checks replication configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateReplication(rep ReplicationConfig) error {
	switch rep.Mode {
	case "", "none", "memory", "sqlite":
	default:
		return fmt.Errorf("replication.mode must be \"none\", \"memory\", or \"sqlite\", got %q", rep.Mode)
	}

	if rep.Mode == "sqlite" && rep.SQLitePath == "" {
		return fmt.Errorf("replication.sqlite_path is required when mode is \"sqlite\"")
	}

	if rep.CacheTTL < 0 {
		return fmt.Errorf("replication.cache_ttl must not be negative, got %v", rep.CacheTTL)
	}

	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tr tracing.Config) error {
	if tr.SampleRate < 0.0 || tr.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tr.SampleRate)
	}

	switch tr.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tr.Exporter)
	}

	// Only validate path requirements when tracing is enabled.
	if tr.Enabled {
		if tr.Exporter == "file" && tr.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tr.Exporter == "otlp" && tr.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Validate checks the whole configuration for errors.
func Validate(cfg Config) error {
	if err := ValidateRegistry(cfg.Registry); err != nil {
		return err
	}
	if err := ValidateReplication(cfg.Replication); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# svcreg Configuration

# File-backed registry settings
registry:
  # Directory holding definition files
  root: ./services

  # Definition file format: "json" (default) or "yaml"
  format: json

  # Reflect external file edits without a restart
  watch: false

# Replication strategy for multi-node deployments
# replication:
#   mode: none          # none (default), memory, or sqlite
#   cache_ttl: 5m       # entry lifetime for memory mode
#   sqlite_path: /var/lib/svcreg/replica.db  # required for sqlite mode

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/svcreg/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Debug logging
# debug: true
# log_path: ~/.config/svcreg/debug.log
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
