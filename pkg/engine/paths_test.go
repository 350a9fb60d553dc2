package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/depot/pkg/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPathFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	got, err := HashPath(path)
	require.NoError(t, err)
	assert.Equal(t, term.HashBytes([]byte("hello")), got)
}

func TestHashPathDirectoryIsOrderIndependent(t *testing.T) {
	makeTree := func(order []string) term.ID {
		dir := t.TempDir()
		for _, name := range order {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content of "+name), 0644))
		}
		id, err := HashPath(dir)
		require.NoError(t, err)
		return id
	}

	a := makeTree([]string{"x", "y", "z"})
	b := makeTree([]string{"z", "x", "y"})
	assert.Equal(t, a, b, "directory digest must not depend on creation order")

	c := makeTree([]string{"x", "y"})
	assert.NotEqual(t, a, c)
}

func TestExpandIDCopiesDirectoryTree(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	src := filepath.Join(filepath.Dir(e.StoreRoot), "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "tool"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.Symlink("bin/tool", filepath.Join(src, "default")))

	imported, _, err := e.ImportPath(ctx, src)
	require.NoError(t, err)
	id := imported.Elems[0].ID

	target := filepath.Join(outDir(t, e), "tree-copy")
	require.NoError(t, e.ExpandID(ctx, id, target))

	data, err := os.ReadFile(filepath.Join(target, "bin", "tool"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(data))

	link, err := os.Readlink(filepath.Join(target, "default"))
	require.NoError(t, err)
	assert.Equal(t, "bin/tool", link)

	// The copy carries the same content digest as the source
	copied, err := HashPath(target)
	require.NoError(t, err)
	assert.Equal(t, id, copied)
}

func TestExpandIDObstructedTarget(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	src := filepath.Dir(e.StoreRoot)
	require.NoError(t, os.WriteFile(filepath.Join(src, "data"), []byte("payload"), 0644))
	imported, _, err := e.ImportPath(ctx, filepath.Join(src, "data"))
	require.NoError(t, err)

	target := filepath.Join(outDir(t, e), "taken")
	require.NoError(t, os.WriteFile(target, []byte("squatter"), 0644))

	err = e.ExpandID(ctx, imported.Elems[0].ID, target)
	var obstructed *ObstructedError
	require.ErrorAs(t, err, &obstructed)
}

func TestDeleteFromStore(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	src := filepath.Dir(e.StoreRoot)
	require.NoError(t, os.WriteFile(filepath.Join(src, "data"), []byte("payload"), 0644))
	imported, _, err := e.ImportPath(ctx, filepath.Join(src, "data"))
	require.NoError(t, err)
	path := imported.Elems[0].Path

	require.NoError(t, e.DeleteFromStore(ctx, path))

	assert.NoFileExists(t, path)
	_, ok, err := e.DB.PathID(ctx, path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImportPathIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	src := filepath.Dir(e.StoreRoot)
	require.NoError(t, os.WriteFile(filepath.Join(src, "data"), []byte("payload"), 0644))

	first, firstID, err := e.ImportPath(ctx, filepath.Join(src, "data"))
	require.NoError(t, err)
	second, secondID, err := e.ImportPath(ctx, filepath.Join(src, "data"))
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID)
	assert.Equal(t, first.Elems[0].Path, second.Elems[0].Path)

	// The imported slice is already normal: normalising its id just
	// returns it
	slice, err := e.Normalise(ctx, firstID)
	require.NoError(t, err)
	assert.True(t, first.Term().Equal(slice.Term()))
}
