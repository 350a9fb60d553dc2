// Package db defines the key/value database contract of the depot engine.
//
// The engine keeps three relations:
//
//	path → id        which content a materialised path carries
//	id → successor   the normalisation memo (id of a term → id of its normal form)
//	id → paths       reverse index: the known materialisations of a content id
//
// Implementations must provide transactional isolation for single-key
// reads and writes; the engine performs no multi-key transactions. The
// successor relation is advisory: losing it costs rebuild time, never
// correctness.
package db

import (
	"context"

	"github.com/marmos91/depot/pkg/term"
)

// Store is the database contract used by the engine.
//
// All operations take a context for cancellation. Lookups distinguish
// "absent" from "failed": a missing key returns (zero, false, nil).
type Store interface {
	// PathID returns the content id registered for a path, if any.
	PathID(ctx context.Context, path string) (term.ID, bool, error)

	// SetPathID registers a path as carrying the given content id.
	// Overwriting with the same id is idempotent.
	SetPathID(ctx context.Context, path string, id term.ID) error

	// DeletePathID removes a path registration. Deleting an absent
	// path is not an error.
	DeletePathID(ctx context.Context, path string) error

	// Successor returns the memoised normal-form id for a term id.
	Successor(ctx context.Context, id term.ID) (term.ID, bool, error)

	// SetSuccessor records that normalising `from` yielded the term
	// whose id is `to`. Idempotent overwrite.
	SetSuccessor(ctx context.Context, from, to term.ID) error

	// PathsForID returns every path registered as carrying the id,
	// in lexicographic order. Empty when the id is unknown.
	PathsForID(ctx context.Context, id term.ID) ([]string, error)

	// Close releases the underlying storage.
	Close() error
}
