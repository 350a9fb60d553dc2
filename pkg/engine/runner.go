package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/marmos91/depot/internal/logger"
)

// tmpCounter disambiguates scratch directories created by this process.
var tmpCounter atomic.Uint64

// RunBuilder executes a builder program and waits for it to finish.
//
// The child runs in a fresh scratch directory under TmpRoot with
// exactly the given environment (nothing inherited), empty stdin, and
// both stdout and stderr appended to <LogDir>/run.log. The program file
// is made executable and invoked with argv[0] set to its basename and
// no arguments. The scratch directory is removed on every exit path.
//
// Any non-zero exit, termination by signal, or failure to start is
// reported as a BuildError.
func (e *Engine) RunBuilder(ctx context.Context, program string, env map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logPath := filepath.Join(e.LogDir, "run.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	defer func() { _ = logFile.Close() }()

	tmpDir := filepath.Join(e.TmpRoot,
		fmt.Sprintf("depot-%d-%d", os.Getpid(), tmpCounter.Add(1)))
	if err := os.Mkdir(tmpDir, 0755); err != nil {
		return fmt.Errorf("failed to create build directory %s: %w", tmpDir, err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	if err := os.Chmod(program, 0755); err != nil {
		return &BuildError{Builder: program, Reason: "cannot make builder executable", Err: err}
	}

	// Sorted for a reproducible child environment; the set of
	// variables is exactly what the derivation declared.
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	environ := make([]string, 0, len(env))
	for _, name := range names {
		environ = append(environ, name+"="+env[name])
	}

	cmd := exec.CommandContext(ctx, program)
	cmd.Args = []string{filepath.Base(program)}
	cmd.Dir = tmpDir
	cmd.Env = environ
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	logger.Info("building with %s", program)
	if err := cmd.Run(); err != nil {
		return &BuildError{Builder: program, Reason: "build failed", Err: err}
	}
	return nil
}
