package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func parseConfig(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	return parsed
}

func TestSaveRegistry_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveRegistry(path, RegistryConfig{Root: "/srv/defs", Format: "yaml", Watch: true})
	require.NoError(t, err)

	parsed := parseConfig(t, path)
	reg, ok := parsed["registry"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "/srv/defs", reg["root"])
	require.Equal(t, "yaml", reg["format"])
	require.Equal(t, true, reg["watch"])
}

func TestSaveRegistry_ReplacesExistingSection(t *testing.T) {
	path := writeConfig(t, `registry:
  root: ./old
  format: json
debug: true
`)

	err := SaveRegistry(path, RegistryConfig{Root: "./new", Format: "json", Watch: false})
	require.NoError(t, err)

	parsed := parseConfig(t, path)
	reg := parsed["registry"].(map[string]any)
	require.Equal(t, "./new", reg["root"])

	// Other sections are untouched.
	require.Equal(t, true, parsed["debug"])
}

func TestSaveRegistry_PreservesComments(t *testing.T) {
	path := writeConfig(t, `# Tuning notes live here
debug: true

registry:
  root: ./old
`)

	err := SaveRegistry(path, RegistryConfig{Root: "./new", Format: "json"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Tuning notes live here")
}

func TestSaveReplication_AppendsSection(t *testing.T) {
	path := writeConfig(t, `registry:
  root: ./services
`)

	err := SaveReplication(path, ReplicationConfig{
		Mode:       "sqlite",
		SQLitePath: "/var/lib/svcreg/replica.db",
		CacheTTL:   time.Minute,
	})
	require.NoError(t, err)

	parsed := parseConfig(t, path)
	rep, ok := parsed["replication"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "sqlite", rep["mode"])
	require.Equal(t, "/var/lib/svcreg/replica.db", rep["sqlite_path"])
	require.Equal(t, "1m0s", rep["cache_ttl"])

	// Existing registry section survives.
	require.Contains(t, parsed, "registry")
}

func TestSaveReplication_OmitsEmptySQLitePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveReplication(path, ReplicationConfig{Mode: "memory", CacheTTL: 5 * time.Minute})
	require.NoError(t, err)

	rep := parseConfig(t, path)["replication"].(map[string]any)
	require.NotContains(t, rep, "sqlite_path")
}

func TestSaveSection_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	err := SaveRegistry(path, RegistryConfig{Root: "./services", Format: "json"})
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
}
