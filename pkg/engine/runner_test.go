package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBuilderEnvironmentIsExact(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	out := filepath.Join(outDir(t, e), "env-out")
	builder := writeBuilder(t, e, "builder.sh",
		`printf '%s|%s' "$FOO" "${HOME:-unset}" > "$OUT"`)

	err := e.RunBuilder(ctx, builder, map[string]string{
		"FOO": "bar",
		"OUT": out,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	// FOO comes from the declared bindings; HOME must not leak in
	// from the parent environment.
	assert.Equal(t, "bar|unset", string(data))
}

func TestRunBuilderCapturesOutputToLog(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	builder := writeBuilder(t, e, "noisy.sh",
		"echo to-stdout\necho to-stderr >&2")

	require.NoError(t, e.RunBuilder(ctx, builder, nil))

	data, err := os.ReadFile(filepath.Join(e.LogDir, "run.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to-stdout")
	assert.Contains(t, string(data), "to-stderr")
}

func TestRunBuilderScratchDirectoryIsRemoved(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	out := filepath.Join(outDir(t, e), "pwd-out")
	builder := writeBuilder(t, e, "pwd.sh", `printf '%s' "$PWD" > "$OUT"`)

	require.NoError(t, e.RunBuilder(ctx, builder, map[string]string{"OUT": out}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	scratch := string(data)

	require.True(t, strings.HasPrefix(scratch, e.TmpRoot),
		"builder ran outside the scratch root: %s", scratch)
	assert.NoDirExists(t, scratch, "scratch directory must be removed")
}

func TestRunBuilderScratchDirectoryRemovedOnFailure(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	out := filepath.Join(outDir(t, e), "pwd-out")
	builder := writeBuilder(t, e, "fail.sh", `printf '%s' "$PWD" > "$OUT"; exit 3`)

	err := e.RunBuilder(ctx, builder, map[string]string{"OUT": out})
	require.Error(t, err)

	data, rerr := os.ReadFile(out)
	require.NoError(t, rerr)
	assert.NoDirExists(t, string(data))
}

func TestRunBuilderFailureIsBuildError(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	builder := writeBuilder(t, e, "fail.sh", "exit 1")

	err := e.RunBuilder(ctx, builder, nil)
	require.Error(t, err)

	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, builder, buildErr.Builder)
}

func TestRunBuilderMakesProgramExecutable(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	// Written 0644 by the helper; the runner must chmod before exec
	builder := writeBuilder(t, e, "plain.sh", "exit 0")

	require.NoError(t, e.RunBuilder(ctx, builder, nil))

	info, err := os.Stat(builder)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}
