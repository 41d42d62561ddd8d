// Package service defines the service definition domain model.
// A definition describes one client application permitted to
// authenticate against the SSO server.
package service

import (
	"errors"
	"sort"
)

// UnassignedID marks a definition that has not been assigned an
// identifier yet. Save assigns one derived from the current time.
const UnassignedID int64 = -1

// Service definition errors
var (
	ErrNilDefinition = errors.New("definition cannot be nil")
)

// Definition is the minimal contract the registry needs from a
// service definition. Concrete types carry the full schema; the
// registry only cares about identity, naming, matching and ordering.
type Definition interface {
	// ID returns the unique numeric identifier, or UnassignedID.
	ID() int64

	// SetID assigns the numeric identifier.
	SetID(id int64)

	// Name returns the human-readable name used for file naming
	// and name-based lookup.
	Name() string

	// Matches reports whether the given service identifier string
	// matches this definition. Exact or pattern matching is the
	// definition's concern.
	Matches(serviceID string) bool

	// Compare orders definitions so duplicate-id collisions resolve
	// deterministically. Negative means this sorts before other.
	Compare(other Definition) int
}

// Sort orders definitions by their natural order, in place.
// The sort is stable so equal definitions keep their scan order.
func Sort(defs []Definition) {
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].Compare(defs[j]) < 0
	})
}
