package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/depot/internal/logger"
	"github.com/marmos91/depot/pkg/term"
)

// Term store
// ==========
//
// Serialised terms live as flat files in the store root, named
// <idhex><suffix>.term. The id is the digest of the canonical encoding,
// so a term file is write-once: rewriting it with the same id always
// writes the same bytes. Every written term is also registered in the
// path database, which lets TermFromID find a term through the reverse
// index even when it was stored with a non-empty suffix.

// termPath returns the conventional store location for a term id.
func (e *Engine) termPath(id term.ID, suffix string) string {
	return filepath.Join(e.StoreRoot, id.String()+suffix+".term")
}

// WriteTerm serialises a term into the store and registers its path.
//
// The suffix participates in the filename only, not in the id; it keeps
// related files recognisable in the store (normal forms carry a
// "-s-<origin>" suffix). Returns the term's id and its on-disk path.
func (e *Engine) WriteTerm(ctx context.Context, n term.Node, suffix string) (term.ID, string, error) {
	if err := ctx.Err(); err != nil {
		return term.ID{}, "", err
	}

	data, err := term.Encode(n)
	if err != nil {
		return term.ID{}, "", err
	}
	id := term.HashBytes(data)
	path := e.termPath(id, suffix)

	// Write through a temporary sibling and rename, so a crash never
	// leaves a half-written term under a registered path.
	if !pathExists(path) {
		tmp := fmt.Sprintf("%s.tmp-%d", path, os.Getpid())
		if err := os.WriteFile(tmp, data, 0444); err != nil {
			return term.ID{}, "", fmt.Errorf("failed to write term %s: %w", path, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			_ = os.Remove(tmp)
			return term.ID{}, "", fmt.Errorf("failed to write term %s: %w", path, err)
		}
	}

	if err := e.DB.SetPathID(ctx, path, id); err != nil {
		return term.ID{}, "", err
	}

	logger.Debug("wrote term %s to %s", id, path)
	return id, path, nil
}

// TermFromID loads and decodes the term stored under the given id.
//
// The path is resolved through the reverse index first (terms may have
// been written with a suffix), falling back to the conventional
// location. Returns the decoded node and the path it was read from.
func (e *Engine) TermFromID(ctx context.Context, id term.ID) (term.Node, string, error) {
	if err := ctx.Err(); err != nil {
		return term.Node{}, "", err
	}

	path := ""
	known, err := e.DB.PathsForID(ctx, id)
	if err != nil {
		return term.Node{}, "", err
	}
	for _, candidate := range known {
		if pathExists(candidate) {
			path = candidate
			break
		}
	}
	if path == "" {
		fallback := e.termPath(id, "")
		if !pathExists(fallback) {
			return term.Node{}, "", fmt.Errorf("term %s is not in the store", id)
		}
		path = fallback
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return term.Node{}, "", fmt.Errorf("failed to read term %s: %w", path, err)
	}
	n, err := term.Decode(data)
	if err != nil {
		return term.Node{}, "", fmt.Errorf("term %s: %w", path, err)
	}
	return n, path, nil
}
