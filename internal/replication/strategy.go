// Package replication defines the pluggable hook that lets a shared
// cache or replicated peer override local load and lookup results.
package replication

import (
	"github.com/zjrosen/svcreg/internal/service"
)

// Updater is the slice of the registry a strategy may write back to
// when a reconciliation discovers an entry the local index is missing.
type Updater interface {
	Update(def service.Definition)
}

// Strategy reconciles registry state against a replication backend.
type Strategy interface {
	// ReconcileBatch runs after a full load. It may inject or override
	// entries from the backend; the returned list is what the registry
	// reports and publishes.
	ReconcileBatch(loaded []service.Definition, reg Updater) []service.Definition

	// ReconcileLookup runs after a single lookup. local is nil on a
	// miss; key is the id or name the caller asked for. The returned
	// definition is what the caller receives.
	ReconcileLookup(local service.Definition, key string, reg Updater) service.Definition
}

// NoOp is the default strategy: it returns its input unchanged.
type NoOp struct{}

var _ Strategy = (*NoOp)(nil)

func (NoOp) ReconcileBatch(loaded []service.Definition, _ Updater) []service.Definition {
	return loaded
}

func (NoOp) ReconcileLookup(local service.Definition, _ string, _ Updater) service.Definition {
	return local
}
