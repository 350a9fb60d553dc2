package engine

import (
	"context"

	"github.com/marmos91/depot/internal/logger"
	"github.com/marmos91/depot/pkg/term"
)

// RealiseSlice materialises every element of a slice at its declared
// path.
//
// A consistency scan runs first: an element is installed when its path
// is registered under its id; a path registered under a different id,
// or present on disk without a registration, is obstructed and fatal.
// When nothing is missing the call returns without touching the
// filesystem. Otherwise every element is expanded; already-installed
// elements are a no-op inside ExpandID.
//
// Partial expansion is safe to retry: elements materialised before a
// failure are content-addressed and pass the next consistency scan.
func (e *Engine) RealiseSlice(ctx context.Context, slice term.Slice) error {
	logger.Debug("realising slice with %d elements", len(slice.Elems))

	if len(slice.Elems) == 0 {
		return term.NewBadTerm("empty slice", slice.Term())
	}

	missing := false
	for _, elem := range slice.Elems {
		id, ok, err := e.DB.PathID(ctx, elem.Path)
		if err != nil {
			return err
		}
		if !ok {
			if pathExists(elem.Path) {
				return &ObstructedError{Path: elem.Path}
			}
			missing = true
			continue
		}
		if id != elem.ID {
			return &ObstructedError{Path: elem.Path}
		}
	}

	if !missing {
		logger.Debug("slice already installed")
		return nil
	}

	for _, elem := range slice.Elems {
		if err := e.ExpandID(ctx, elem.ID, elem.Path); err != nil {
			return err
		}
	}
	return nil
}
