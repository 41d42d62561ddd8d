package registry

import (
	"sync"

	"github.com/zjrosen/svcreg/internal/service"
)

// index is the authoritative in-memory id -> definition mapping.
// It preserves insertion order and is safe for concurrent use.
// Whole-index replacement happens under the registry's operation
// mutex; single-entry reads and writes only take the index lock.
type index struct {
	mu    sync.RWMutex
	order []int64
	byID  map[int64]service.Definition
}

func newIndex() *index {
	return &index{byID: make(map[int64]service.Definition)}
}

// put inserts or overwrites the entry for def's id.
func (ix *index) put(def service.Definition) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.byID[def.ID()]; !exists {
		ix.order = append(ix.order, def.ID())
	}
	ix.byID[def.ID()] = def
}

// get returns the entry for id, or nil.
func (ix *index) get(id int64) service.Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.byID[id]
}

// remove drops the entry for id, if present.
func (ix *index) remove(id int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.byID[id]; !exists {
		return
	}
	delete(ix.byID, id)
	for i, existing := range ix.order {
		if existing == id {
			ix.order = append(ix.order[:i], ix.order[i+1:]...)
			break
		}
	}
}

// size returns the current cardinality.
func (ix *index) size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}

// values returns a snapshot of all entries in insertion order.
func (ix *index) values() []service.Definition {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]service.Definition, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.byID[id])
	}
	return out
}

// replace swaps the full contents for the given entries, which must
// already be deduplicated by id.
func (ix *index) replace(defs []service.Definition) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.order = make([]int64, 0, len(defs))
	ix.byID = make(map[int64]service.Definition, len(defs))
	for _, def := range defs {
		ix.order = append(ix.order, def.ID())
		ix.byID[def.ID()] = def
	}
}
