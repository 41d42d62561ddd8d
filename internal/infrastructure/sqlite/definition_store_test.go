package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/svcreg/internal/service"
)

func newTestStore(t *testing.T) *DefinitionStore {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DefinitionStore()
}

func TestDefinitionStore_PutGet(t *testing.T) {
	store := newTestStore(t)
	def := &service.RegexDefinition{
		DefinitionID:    100,
		ServiceName:     "svcA",
		Pattern:         "https://a\\..*",
		Description:     "app A",
		EvaluationOrder: 1,
	}

	require.NoError(t, store.Put(def))

	got, found, err := store.Get(100)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, def, got)
}

func TestDefinitionStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.Get(404)
	require.NoError(t, err)
	require.False(t, found)
}

func TestDefinitionStore_PutUpserts(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put(&service.RegexDefinition{DefinitionID: 1, ServiceName: "old"}))
	require.NoError(t, store.Put(&service.RegexDefinition{DefinitionID: 1, ServiceName: "new"}))

	got, found, err := store.Get(1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "new", got.Name())

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestDefinitionStore_GetByName(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put(&service.RegexDefinition{DefinitionID: 2, ServiceName: "svc"}))
	require.NoError(t, store.Put(&service.RegexDefinition{DefinitionID: 1, ServiceName: "svc"}))

	got, found, err := store.GetByName("svc")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1), got.ID(), "lowest id wins on shared names")

	_, found, err = store.GetByName("nope")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDefinitionStore_AllOrderedByID(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put(&service.RegexDefinition{DefinitionID: 3, ServiceName: "c"}))
	require.NoError(t, store.Put(&service.RegexDefinition{DefinitionID: 1, ServiceName: "a"}))
	require.NoError(t, store.Put(&service.RegexDefinition{DefinitionID: 2, ServiceName: "b"}))

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, int64(1), all[0].ID())
	require.Equal(t, int64(2), all[1].ID())
	require.Equal(t, int64(3), all[2].ID())
}

func TestDefinitionStore_Remove(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put(&service.RegexDefinition{DefinitionID: 1, ServiceName: "a"}))
	require.NoError(t, store.Remove(1))

	_, found, err := store.Get(1)
	require.NoError(t, err)
	require.False(t, found)

	// Removing an absent id is not an error.
	require.NoError(t, store.Remove(1))
}
