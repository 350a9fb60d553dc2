package term

// Typed views
// ===========
//
// The engine never pattern-matches raw trees; it parses them into one of
// the three typed views below and works with those. The views know how
// to rebuild their canonical tree, so parse and build round-trip and the
// identity of a view is well defined.

// Include is an indirection: the real term lives in the term store under ID.
type Include struct {
	ID ID
}

// OutSpec pairs a declared output path with the id under which the
// produced content will be registered.
type OutSpec struct {
	Path string
	ID   ID
}

// Binding is one environment variable of a derivation.
type Binding struct {
	Name  string
	Value string
}

// Derive is a build recipe: run Builder on Platform with exactly the
// declared Bindings as environment, after realising every input in Ins,
// expecting each path in Outs to be produced.
type Derive struct {
	Outs     []OutSpec
	Ins      []ID
	Builder  string
	Platform string
	Bindings []Binding
}

// SliceElem is one concrete filesystem element of a slice: the path it
// lives at, the id of its content, and the ids of the other elements its
// content references.
type SliceElem struct {
	Path string
	ID   ID
	Refs []ID
}

// Slice is the normal form of a term: the transitive, content-addressed
// set of filesystem elements it denotes. Roots are the top-level output
// ids; every id in any element's Refs appears as some element's ID.
type Slice struct {
	Roots []ID
	Elems []SliceElem
}

func idList(ids []ID) Node {
	elems := make([]Node, len(ids))
	for i, id := range ids {
		elems[i] = Str(id.String())
	}
	return ListOf(elems...)
}

// Term rebuilds the canonical tree of the include.
func (v Include) Term() Node {
	return Make("Include", Str(v.ID.String()))
}

// Term rebuilds the canonical tree of the derivation.
func (v Derive) Term() Node {
	outs := make([]Node, len(v.Outs))
	for i, out := range v.Outs {
		outs[i] = ListOf(Str(out.Path), Str(out.ID.String()))
	}
	bnds := make([]Node, len(v.Bindings))
	for i, b := range v.Bindings {
		bnds[i] = ListOf(Str(b.Name), Str(b.Value))
	}
	return Make("Derive",
		ListOf(outs...),
		idList(v.Ins),
		Str(v.Builder),
		Str(v.Platform),
		ListOf(bnds...))
}

// Term rebuilds the canonical tree of the slice.
func (v Slice) Term() Node {
	elems := make([]Node, len(v.Elems))
	for i, elem := range v.Elems {
		elems[i] = ListOf(Str(elem.Path), Str(elem.ID.String()), idList(elem.Refs))
	}
	return Make("Slice", idList(v.Roots), ListOf(elems...))
}

// FindElem returns the element with the given id, if any.
func (v Slice) FindElem(id ID) (SliceElem, bool) {
	for _, elem := range v.Elems {
		if elem.ID == id {
			return elem, true
		}
	}
	return SliceElem{}, false
}
