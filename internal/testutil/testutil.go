// Package testutil provides helpers for seeding registry directories
// in tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/svcreg/internal/naming"
	"github.com/zjrosen/svcreg/internal/serializer"
	"github.com/zjrosen/svcreg/internal/service"
)

// Definition builds a regex definition with a deterministic pattern.
func Definition(id int64, name string) *service.RegexDefinition {
	return &service.RegexDefinition{
		DefinitionID: id,
		ServiceName:  name,
		Pattern:      "https://" + name + "\\..*",
	}
}

// WriteDefinition serializes def into its canonical JSON file under
// dir and returns the full path.
func WriteDefinition(t *testing.T, dir string, def *service.RegexDefinition) string {
	t.Helper()

	scheme := naming.New("json")
	path := filepath.Join(dir, scheme.FileName(def))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.NoError(t, serializer.NewJSON().Write(f, def))
	return path
}

// WriteRaw writes arbitrary bytes to baseName under dir and returns
// the full path. Used for misnamed, empty or corrupt candidates.
func WriteRaw(t *testing.T, dir, baseName string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, baseName)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
