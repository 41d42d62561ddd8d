package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/svcreg/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "./services", cfg.Registry.Root)
	require.Equal(t, "json", cfg.Registry.Format)
	require.False(t, cfg.Registry.Watch)
	require.Equal(t, "none", cfg.Replication.Mode)
	require.Equal(t, 5*time.Minute, cfg.Replication.CacheTTL)
	require.False(t, cfg.Tracing.Enabled)
	require.False(t, cfg.Debug)
}

func TestValidateRegistry_Formats(t *testing.T) {
	require.NoError(t, ValidateRegistry(RegistryConfig{Format: ""}))
	require.NoError(t, ValidateRegistry(RegistryConfig{Format: "json"}))
	require.NoError(t, ValidateRegistry(RegistryConfig{Format: "yaml"}))

	err := ValidateRegistry(RegistryConfig{Format: "toml"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "registry.format")
}

func TestValidateReplication_Modes(t *testing.T) {
	require.NoError(t, ValidateReplication(ReplicationConfig{}))
	require.NoError(t, ValidateReplication(ReplicationConfig{Mode: "none"}))
	require.NoError(t, ValidateReplication(ReplicationConfig{Mode: "memory"}))
	require.NoError(t, ValidateReplication(ReplicationConfig{Mode: "sqlite", SQLitePath: "/tmp/r.db"}))

	err := ValidateReplication(ReplicationConfig{Mode: "redis"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "replication.mode")
}

func TestValidateReplication_SQLiteRequiresPath(t *testing.T) {
	err := ValidateReplication(ReplicationConfig{Mode: "sqlite"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sqlite_path is required")
}

func TestValidateReplication_NegativeTTL(t *testing.T) {
	err := ValidateReplication(ReplicationConfig{Mode: "memory", CacheTTL: -time.Second})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache_ttl")
}

func TestValidateTracing_SampleRateRange(t *testing.T) {
	require.NoError(t, ValidateTracing(tracing.Config{SampleRate: 0.5}))

	err := ValidateTracing(tracing.Config{SampleRate: 1.5})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rate")
}

func TestValidateTracing_ExporterValues(t *testing.T) {
	for _, exporter := range []string{"", "none", "file", "stdout", "otlp"} {
		require.NoError(t, ValidateTracing(tracing.Config{Exporter: exporter, SampleRate: 1.0}))
	}

	err := ValidateTracing(tracing.Config{Exporter: "jaeger", SampleRate: 1.0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tracing.exporter")
}

func TestValidateTracing_EnabledRequiresPaths(t *testing.T) {
	err := ValidateTracing(tracing.Config{Enabled: true, Exporter: "file", SampleRate: 1.0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "file_path is required")

	err = ValidateTracing(tracing.Config{Enabled: true, Exporter: "otlp", SampleRate: 1.0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "otlp_endpoint is required")

	// Disabled tracing skips the path requirements.
	require.NoError(t, ValidateTracing(tracing.Config{Enabled: false, Exporter: "file", SampleRate: 1.0}))
}

func TestValidate_Aggregates(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))

	cfg.Replication.Mode = "bogus"
	require.Error(t, Validate(cfg))
}

func TestWriteDefaultConfig_CreatesFileAndParents(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "registry:")
}

func TestDefaultConfigTemplate_ParsesToDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	require.Equal(t, "./services", cfg.Registry.Root)
	require.Equal(t, "json", cfg.Registry.Format)
	require.False(t, cfg.Registry.Watch)
	require.NoError(t, Validate(cfg))
}
