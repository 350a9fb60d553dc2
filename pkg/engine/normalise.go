package engine

import (
	"context"

	"github.com/marmos91/depot/internal/logger"
	"github.com/marmos91/depot/pkg/term"
)

// Normalise rewrites the term stored under id into its slice.
//
// Terms already in normal form are parsed and returned directly.
// Derivations are built: inputs are normalised and realised
// recursively, the builder runs in a scratch directory with the
// declared environment, outputs are verified, registered and scanned
// for references, and the resulting slice is persisted and memoised as
// the term's successor so the next call short-circuits.
func (e *Engine) Normalise(ctx context.Context, id term.ID) (term.Slice, error) {
	logger.Debug("normalising %s", id)

	id, err := e.chaseSuccessors(ctx, id)
	if err != nil {
		return term.Slice{}, err
	}

	node, _, err := e.TermFromID(ctx, id)
	if err != nil {
		return term.Slice{}, err
	}

	// Already in normal form?
	if term.IsSlice(node) {
		return term.ParseSlice(node)
	}

	d, err := term.ParseDerive(node)
	if err != nil {
		return term.Slice{}, err
	}

	if err := e.checkPlatform(d.Platform); err != nil {
		return term.Slice{}, err
	}

	inElems, inPaths, err := e.realiseInputs(ctx, node, d.Ins)
	if err != nil {
		return term.Slice{}, err
	}

	env := make(map[string]string, len(d.Bindings))
	for _, b := range d.Bindings {
		env[b.Name] = b.Value
	}

	// None of the declared outputs may exist yet; a leftover from an
	// earlier run is the operator's to resolve, not ours to delete.
	for _, out := range d.Outs {
		if pathExists(out.Path) {
			return term.Slice{}, &PathExistsError{Path: out.Path}
		}
	}

	if err := e.RunBuilder(ctx, d.Builder, env); err != nil {
		return term.Slice{}, err
	}

	slice, err := e.collectOutputs(ctx, d, inElems, inPaths)
	if err != nil {
		return term.Slice{}, err
	}

	// Persist the normal form before memoising it: a successor entry
	// must never point at a term that is not durable yet.
	nfID, _, err := e.WriteTerm(ctx, slice.Term(), "-s-"+id.String())
	if err != nil {
		return term.Slice{}, err
	}
	if err := e.DB.SetSuccessor(ctx, id, nfID); err != nil {
		return term.Slice{}, err
	}

	logger.Info("normalised %s -> %s", id, nfID)
	return slice, nil
}

// NormalisePath normalises the term and realises the resulting slice.
func (e *Engine) NormalisePath(ctx context.Context, id term.ID) (term.Slice, error) {
	slice, err := e.Normalise(ctx, id)
	if err != nil {
		return term.Slice{}, err
	}
	if err := e.RealiseSlice(ctx, slice); err != nil {
		return term.Slice{}, err
	}
	return slice, nil
}

// chaseSuccessors follows the successor memo until no entry exists.
// A revisited id means the memo contains a cycle; the chase stops there
// rather than failing, since the memo is advisory.
func (e *Engine) chaseSuccessors(ctx context.Context, id term.ID) (term.ID, error) {
	visited := map[term.ID]bool{id: true}
	for {
		succ, ok, err := e.DB.Successor(ctx, id)
		if err != nil {
			return term.ID{}, err
		}
		if !ok {
			return id, nil
		}
		if visited[succ] {
			logger.Warn("successor cycle at %s", succ)
			return id, nil
		}
		logger.Debug("successor %s -> %s", id, succ)
		visited[succ] = true
		id = succ
	}
}

// realiseInputs normalises and materialises every input, in declaration
// order, and accumulates the union of their slice elements.
//
// Elements are deduplicated by (path, id), preserving first-appearance
// order. Two inputs disagreeing about the id behind one path means the
// inputs are corrupt.
func (e *Engine) realiseInputs(ctx context.Context, origin term.Node, ins []term.ID) ([]term.SliceElem, []string, error) {
	var inElems []term.SliceElem
	var inPaths []string
	byPath := make(map[string]term.ID)

	for _, in := range ins {
		sub, err := e.Normalise(ctx, in)
		if err != nil {
			return nil, nil, err
		}
		if err := e.RealiseSlice(ctx, sub); err != nil {
			return nil, nil, err
		}

		for _, elem := range sub.Elems {
			if have, seen := byPath[elem.Path]; seen {
				if have != elem.ID {
					return nil, nil, term.NewBadTerm("inputs disagree about path "+elem.Path, origin)
				}
				continue
			}
			byPath[elem.Path] = elem.ID
			inElems = append(inElems, elem)
			inPaths = append(inPaths, elem.Path)
		}
	}

	return inElems, inPaths, nil
}

// collectOutputs verifies, registers and scans the declared outputs,
// then assembles the slice: one element per output plus every input
// element transitively reachable through references.
func (e *Engine) collectOutputs(ctx context.Context, d term.Derive, inElems []term.SliceElem, inPaths []string) (term.Slice, error) {
	elemByPath := make(map[string]term.SliceElem, len(inElems))
	elemByID := make(map[term.ID]term.SliceElem, len(inElems))
	for _, elem := range inElems {
		elemByPath[elem.Path] = elem
		elemByID[elem.ID] = elem
	}

	var slice term.Slice

	for _, out := range d.Outs {
		if !pathExists(out.Path) {
			return term.Slice{}, &BuildError{Builder: d.Builder, Path: out.Path, Reason: "did not produce output"}
		}

		if e.VerifyOutputs {
			actual, err := HashPath(out.Path)
			if err != nil {
				return term.Slice{}, err
			}
			if actual != out.ID {
				return term.Slice{}, &BuildError{
					Builder: d.Builder,
					Path:    out.Path,
					Reason:  "output digest " + actual.String() + " does not match declared id " + out.ID.String(),
				}
			}
		}

		if err := e.RegisterPath(ctx, out.Path, out.ID); err != nil {
			return term.Slice{}, err
		}

		refPaths, err := FilterReferences(out.Path, inPaths)
		if err != nil {
			return term.Slice{}, err
		}
		refs := make([]term.ID, 0, len(refPaths))
		for _, refPath := range refPaths {
			refs = append(refs, elemByPath[refPath].ID)
		}

		slice.Roots = append(slice.Roots, out.ID)
		slice.Elems = append(slice.Elems, term.SliceElem{Path: out.Path, ID: out.ID, Refs: refs})
	}

	// Close the element set under references: everything reachable
	// from an output belongs to the slice, so realising it later
	// needs no further lookups. Input elements keep their
	// first-appearance order.
	reachable := make(map[term.ID]bool, len(slice.Elems))
	queue := make([]term.ID, 0, len(inElems))
	for _, elem := range slice.Elems {
		queue = append(queue, elem.Refs...)
	}
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if reachable[ref] {
			continue
		}
		reachable[ref] = true
		if elem, ok := elemByID[ref]; ok {
			queue = append(queue, elem.Refs...)
		}
	}
	for _, elem := range inElems {
		if reachable[elem.ID] {
			slice.Elems = append(slice.Elems, elem)
		}
	}

	return slice, nil
}
