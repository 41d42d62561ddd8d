package registry_test

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/svcreg/internal/registry"
	"github.com/zjrosen/svcreg/internal/service"
	"github.com/zjrosen/svcreg/internal/testutil"
)

func withWatch() []registry.Option {
	return []registry.Option{registry.WithWatch()}
}

func mustJSON(t *testing.T, def *service.RegexDefinition) []byte {
	t.Helper()
	data, err := json.Marshal(def)
	require.NoError(t, err)
	return data
}

func TestWatch_ExternalCreateIsIndexed(t *testing.T) {
	dir := t.TempDir()
	reg := newRegistry(t, dir, withWatch()...)

	testutil.WriteDefinition(t, dir, testutil.Definition(1, "svcA"))

	require.Eventually(t, func() bool {
		return reg.FindByID(1) != nil
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, 1, reg.Size())
}

func TestWatch_ExternalModifyReplacesEntry(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDefinition(t, dir, testutil.Definition(1, "svcA"))

	reg := newRegistry(t, dir, withWatch()...)
	reg.Load()
	require.Equal(t, 1, reg.Size())

	updated := testutil.Definition(1, "svcA")
	updated.Description = "changed externally"
	data := mustJSON(t, updated)
	require.NoError(t, os.WriteFile(path, data, 0644))

	require.Eventually(t, func() bool {
		def := reg.FindByID(1)
		if def == nil {
			return false
		}
		concrete, ok := def.(*service.RegexDefinition)
		return ok && concrete.Description == "changed externally"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatch_ExternalDeleteDropsEntry(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDefinition(t, dir, testutil.Definition(1, "svcA"))

	reg := newRegistry(t, dir, withWatch()...)
	reg.Load()
	require.Equal(t, 1, reg.Size())

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		return reg.Size() == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatch_CloseIsSafeTwice(t *testing.T) {
	dir := t.TempDir()
	reg := newRegistry(t, dir, withWatch()...)

	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())
}

func TestClose_WithoutWatcher(t *testing.T) {
	reg := newRegistry(t, t.TempDir())

	require.NoError(t, reg.Close())
}
