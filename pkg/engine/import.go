package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/depot/internal/logger"
	"github.com/marmos91/depot/pkg/term"
)

// ImportPath copies a file or directory tree into the store and wraps
// it in a single-element slice term, so it can serve as a derivation
// input.
//
// The store location is derived from the content digest
// (<root>/<idhex>-<basename>), making the import idempotent: importing
// the same content twice lands on the same path. Returns the slice and
// the id of its stored term.
func (e *Engine) ImportPath(ctx context.Context, src string) (term.Slice, term.ID, error) {
	if err := ctx.Err(); err != nil {
		return term.Slice{}, term.ID{}, err
	}

	id, err := HashPath(src)
	if err != nil {
		return term.Slice{}, term.ID{}, fmt.Errorf("failed to hash %s: %w", src, err)
	}

	dst := filepath.Join(e.StoreRoot, id.String()+"-"+filepath.Base(src))
	if !pathExists(dst) {
		tmp := fmt.Sprintf("%s.tmp-%d", dst, os.Getpid())
		if err := copyPath(src, tmp); err != nil {
			_ = os.RemoveAll(tmp)
			return term.Slice{}, term.ID{}, fmt.Errorf("failed to import %s: %w", src, err)
		}
		if err := os.Rename(tmp, dst); err != nil {
			_ = os.RemoveAll(tmp)
			return term.Slice{}, term.ID{}, fmt.Errorf("failed to import %s: %w", src, err)
		}
	}
	if err := e.RegisterPath(ctx, dst, id); err != nil {
		return term.Slice{}, term.ID{}, err
	}

	slice := term.Slice{
		Roots: []term.ID{id},
		Elems: []term.SliceElem{{Path: dst, ID: id}},
	}
	sliceID, _, err := e.WriteTerm(ctx, slice.Term(), "")
	if err != nil {
		return term.Slice{}, term.ID{}, err
	}

	logger.Info("imported %s as %s", src, sliceID)
	return slice, sliceID, nil
}
