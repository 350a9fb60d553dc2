package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/depot/pkg/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealiseEmptySliceIsRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	err := e.RealiseSlice(ctx, term.Slice{})
	var badTerm *term.BadTermError
	require.True(t, errors.As(err, &badTerm))
}

func TestRealiseAlreadyInstalled(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	src := filepath.Dir(e.StoreRoot)
	require.NoError(t, os.WriteFile(filepath.Join(src, "data"), []byte("payload"), 0644))
	slice, _, err := e.ImportPath(ctx, filepath.Join(src, "data"))
	require.NoError(t, err)

	// Everything is registered and on disk; nothing to do
	require.NoError(t, e.RealiseSlice(ctx, slice))
}

func TestRealiseObstructedByUnregisteredPath(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	target := filepath.Join(outDir(t, e), "XYZ")
	require.NoError(t, os.WriteFile(target, []byte("squatter"), 0644))

	slice := term.Slice{
		Roots: []term.ID{term.HashBytes([]byte("XYZ"))},
		Elems: []term.SliceElem{{Path: target, ID: term.HashBytes([]byte("XYZ"))}},
	}

	err := e.RealiseSlice(ctx, slice)
	var obstructed *ObstructedError
	require.True(t, errors.As(err, &obstructed))
	assert.Equal(t, target, obstructed.Path)
}

func TestRealiseObstructedByConflictingRegistration(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	target := filepath.Join(outDir(t, e), "conflict")
	require.NoError(t, e.RegisterPath(ctx, target, term.HashBytes([]byte("other"))))

	slice := term.Slice{
		Roots: []term.ID{term.HashBytes([]byte("mine"))},
		Elems: []term.SliceElem{{Path: target, ID: term.HashBytes([]byte("mine"))}},
	}

	err := e.RealiseSlice(ctx, slice)
	var obstructed *ObstructedError
	require.True(t, errors.As(err, &obstructed))
	assert.Equal(t, target, obstructed.Path)
}

func TestRealiseExpandsMissingElement(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	// A known materialisation of the content already exists
	src := filepath.Dir(e.StoreRoot)
	require.NoError(t, os.WriteFile(filepath.Join(src, "data"), []byte("payload"), 0644))
	imported, _, err := e.ImportPath(ctx, filepath.Join(src, "data"))
	require.NoError(t, err)
	id := imported.Elems[0].ID

	// The same content is wanted at a second location
	target := filepath.Join(outDir(t, e), "copy")
	slice := term.Slice{
		Roots: []term.ID{id},
		Elems: []term.SliceElem{{Path: target, ID: id}},
	}

	require.NoError(t, e.RealiseSlice(ctx, slice))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	got, ok, err := e.DB.PathID(ctx, target)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got)

	// Retry is a no-op now that the element is installed
	require.NoError(t, e.RealiseSlice(ctx, slice))
}

func TestRealiseFailsWithoutSource(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	target := filepath.Join(outDir(t, e), "orphan")
	slice := term.Slice{
		Roots: []term.ID{term.HashBytes([]byte("orphan"))},
		Elems: []term.SliceElem{{Path: target, ID: term.HashBytes([]byte("orphan"))}},
	}

	err := e.RealiseSlice(ctx, slice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source")
}
