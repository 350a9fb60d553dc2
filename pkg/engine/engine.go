// Package engine implements the normalisation and realisation core of
// the depot build system.
//
// Given the id of a stored term, the engine rewrites it to its normal
// form (a slice: the transitive set of content-addressed filesystem
// elements the term denotes), building whatever is necessary along the
// way, and materialises slices at their declared paths. Results are
// memoised through the successor table so repeat requests are cheap.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/marmos91/depot/internal/logger"
	"github.com/marmos91/depot/pkg/db"
)

// Engine carries the process-wide state of one depot instance.
//
// Everything the normaliser needs is resolved once at construction and
// passed around explicitly; tests build throwaway engines over
// t.TempDir fixtures and an in-memory database.
//
// Thread Safety:
// One engine serves one normalisation at a time. The persistent
// database may be shared with other engine processes; it provides its
// own per-key isolation.
type Engine struct {
	// System is the platform tag of this engine. A derivation builds
	// only when its declared platform equals System.
	System string

	// StoreRoot is the directory holding serialised terms and
	// imported contents.
	StoreRoot string

	// LogDir is the directory receiving builder output (run.log).
	LogDir string

	// TmpRoot is where scratch build directories are created.
	TmpRoot string

	// VerifyOutputs re-hashes every build output and fails the build
	// when the digest differs from the declared output id. Off by
	// default: the declared id is trusted.
	VerifyOutputs bool

	// DB is the key/value database holding the path and successor
	// relations.
	DB db.Store
}

// Options configures a new engine. Zero fields are defaulted.
type Options struct {
	// System overrides the platform tag (default: DefaultSystem())
	System string

	// StoreRoot is the store directory (required)
	StoreRoot string

	// LogDir is the build log directory (default: <StoreRoot>/../log)
	LogDir string

	// TmpRoot is the scratch directory root (default: os.TempDir())
	TmpRoot string

	// VerifyOutputs enables re-hashing of build outputs
	VerifyOutputs bool

	// DB is the database handle (required)
	DB db.Store
}

// DefaultSystem returns the platform tag of the running process, e.g.
// "amd64-linux".
func DefaultSystem() string {
	return runtime.GOARCH + "-" + runtime.GOOS
}

// New creates an engine and its on-disk directories.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.StoreRoot == "" {
		return nil, fmt.Errorf("engine: store root is required")
	}
	if opts.DB == nil {
		return nil, fmt.Errorf("engine: database is required")
	}

	e := &Engine{
		System:        opts.System,
		StoreRoot:     opts.StoreRoot,
		LogDir:        opts.LogDir,
		TmpRoot:       opts.TmpRoot,
		VerifyOutputs: opts.VerifyOutputs,
		DB:            opts.DB,
	}
	if e.System == "" {
		e.System = DefaultSystem()
	}
	if e.LogDir == "" {
		e.LogDir = filepath.Join(filepath.Dir(e.StoreRoot), "log")
	}
	if e.TmpRoot == "" {
		e.TmpRoot = os.TempDir()
	}

	for _, dir := range []string{e.StoreRoot, e.LogDir, e.TmpRoot} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("engine: failed to create %s: %w", dir, err)
		}
	}

	logger.Debug("engine ready: system=%s store=%s", e.System, e.StoreRoot)
	return e, nil
}

// checkPlatform rejects derivations declared for another platform.
func (e *Engine) checkPlatform(platform string) error {
	if platform != e.System {
		return &PlatformError{Want: platform, Have: e.System}
	}
	return nil
}
