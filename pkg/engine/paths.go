package engine

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/marmos91/depot/internal/logger"
	"github.com/marmos91/depot/pkg/term"
)

// Path store
// ==========
//
// The path store maps content ids to materialised filesystem trees. A
// registration (path → id) asserts that the tree at `path` carries the
// content whose digest is `id`; the reverse index answers "where does
// this id already live". Expansion copies a known materialisation to a
// new path, atomically as seen by concurrent observers: the tree is
// assembled under a temporary sibling and renamed into place.

// pathExists reports whether a path exists, without following a final
// symlink.
func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// RegisterPath records that the tree at path carries the given id.
func (e *Engine) RegisterPath(ctx context.Context, path string, id term.ID) error {
	return e.DB.SetPathID(ctx, path, id)
}

// DeleteFromStore removes a materialised path from disk and drops its
// registration.
func (e *Engine) DeleteFromStore(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return e.DB.DeletePathID(ctx, path)
}

// ExpandID materialises the content stored under id at the target path.
//
// When the target already carries the id, this is a no-op. Otherwise a
// known materialisation of the id is copied over. A target that exists
// on disk without carrying the id is obstructed; the caller's
// consistency scan normally catches this first, but expansion rechecks
// because the store may be shared with other processes.
func (e *Engine) ExpandID(ctx context.Context, id term.ID, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if have, ok, err := e.DB.PathID(ctx, target); err != nil {
		return err
	} else if ok && have == id && pathExists(target) {
		return nil
	} else if ok && have != id {
		return &ObstructedError{Path: target}
	}
	if pathExists(target) {
		return &ObstructedError{Path: target}
	}

	source, err := e.findSource(ctx, id, target)
	if err != nil {
		return err
	}

	tmp := fmt.Sprintf("%s.tmp-%d", target, os.Getpid())
	if err := copyPath(source, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("failed to expand %s at %s: %w", id, target, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("failed to expand %s at %s: %w", id, target, err)
	}

	logger.Debug("expanded %s at %s (from %s)", id, target, source)
	return e.RegisterPath(ctx, target, id)
}

// findSource locates an existing materialisation of id other than the
// target itself.
func (e *Engine) findSource(ctx context.Context, id term.ID, target string) (string, error) {
	known, err := e.DB.PathsForID(ctx, id)
	if err != nil {
		return "", err
	}
	for _, candidate := range known {
		if candidate != target && pathExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no source for content %s", id)
}

// copyPath copies a file, directory tree, or symlink from src to dst.
// File modes are preserved; owners and timestamps are not, since store
// contents are read-only and identified purely by their bytes.
func copyPath(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode().IsRegular():
		return copyFile(src, dst, info.Mode().Perm())

	case info.Mode()&fs.ModeSymlink != 0:
		link, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(link, dst)

	case info.IsDir():
		if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := copyPath(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported file type at %s", src)
	}
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// HashPath computes the content digest of a materialised path.
//
// Regular files hash to the digest of their bytes. Symlinks hash their
// target. Directories hash a canonical listing: each entry's name and
// the digest of its subtree, in sorted order, so the digest is
// independent of filesystem iteration order.
func HashPath(path string) (term.ID, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return term.ID{}, err
	}

	switch {
	case info.Mode().IsRegular():
		data, err := os.ReadFile(path)
		if err != nil {
			return term.ID{}, err
		}
		return term.HashBytes(data), nil

	case info.Mode()&fs.ModeSymlink != 0:
		link, err := os.Readlink(path)
		if err != nil {
			return term.ID{}, err
		}
		return term.HashBytes([]byte("link:" + link)), nil

	case info.IsDir():
		entries, err := os.ReadDir(path)
		if err != nil {
			return term.ID{}, err
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		listing := []byte("dir:")
		for _, name := range names {
			sub, err := HashPath(filepath.Join(path, name))
			if err != nil {
				return term.ID{}, err
			}
			listing = append(listing, name...)
			listing = append(listing, '=')
			listing = append(listing, sub[:]...)
		}
		return term.HashBytes(listing), nil

	default:
		return term.ID{}, fmt.Errorf("unsupported file type at %s", path)
	}
}
