package replication

import (
	"strconv"

	"github.com/zjrosen/svcreg/internal/log"
	"github.com/zjrosen/svcreg/internal/service"
)

// Store is a durable shared backend for replicated definitions,
// typically a SQLite database reachable by every peer.
type Store interface {
	Put(def service.Definition) error
	Get(id int64) (service.Definition, bool, error)
	GetByName(name string) (service.Definition, bool, error)
	All() ([]service.Definition, error)
	Remove(id int64) error
}

// StoreStrategy reconciles against a durable replica store. Loads push
// local state into the store and pull back entries written by peers;
// lookup misses fall through to the store.
type StoreStrategy struct {
	store Store
}

var _ Strategy = (*StoreStrategy)(nil)

// NewStoreStrategy creates a store-backed strategy.
func NewStoreStrategy(store Store) *StoreStrategy {
	return &StoreStrategy{store: store}
}

func (s *StoreStrategy) ReconcileBatch(loaded []service.Definition, reg Updater) []service.Definition {
	seen := make(map[int64]struct{}, len(loaded))
	for _, def := range loaded {
		seen[def.ID()] = struct{}{}
		if err := s.store.Put(def); err != nil {
			log.ErrorErr(log.CatReplication, "failed to replicate definition", err, "id", def.ID())
		}
	}

	replicated, err := s.store.All()
	if err != nil {
		log.ErrorErr(log.CatReplication, "failed to read replica store", err)
		return loaded
	}

	results := loaded
	for _, def := range replicated {
		if _, present := seen[def.ID()]; present {
			continue
		}
		seen[def.ID()] = struct{}{}
		log.Debug(log.CatReplication, "injecting replicated definition", "id", def.ID(), "name", def.Name())
		reg.Update(def)
		results = append(results, def)
	}
	return results
}

func (s *StoreStrategy) ReconcileLookup(local service.Definition, key string, reg Updater) service.Definition {
	if local != nil {
		if err := s.store.Put(local); err != nil {
			log.ErrorErr(log.CatReplication, "failed to replicate definition", err, "id", local.ID())
		}
		return local
	}

	var (
		def   service.Definition
		found bool
		err   error
	)
	if id, parseErr := strconv.ParseInt(key, 10, 64); parseErr == nil {
		def, found, err = s.store.Get(id)
	} else {
		def, found, err = s.store.GetByName(key)
	}
	if err != nil {
		log.ErrorErr(log.CatReplication, "replica store lookup failed", err, "key", key)
		return nil
	}
	if !found {
		return nil
	}
	log.Debug(log.CatReplication, "serving definition from replica store", "key", key)
	reg.Update(def)
	return def
}
