package term

// Strict parsing of raw trees into typed views.
//
// The parser rejects anything that is not exactly the expected shape:
// wrong label, wrong argument count, an atom where a list is required,
// a malformed id string. Loose matching silently accepts corrupt store
// contents, so every mismatch is a BadTermError here.

func atom(n Node, what string) (string, error) {
	if n.Kind != KindAtom {
		return "", NewBadTerm(what+" expected", n)
	}
	return n.Text, nil
}

func list(n Node, what string) ([]Node, error) {
	if n.Kind != KindList {
		return nil, NewBadTerm(what+" expected", n)
	}
	return n.Kids, nil
}

func parseID(n Node) (ID, error) {
	s, err := atom(n, "id")
	if err != nil {
		return ID{}, err
	}
	id, err := ParseID(s)
	if err != nil {
		return ID{}, NewBadTerm("not an id", n)
	}
	return id, nil
}

func parseIDs(n Node) ([]ID, error) {
	kids, err := list(n, "id list")
	if err != nil {
		return nil, err
	}
	ids := make([]ID, 0, len(kids))
	for _, kid := range kids {
		id, err := parseID(kid)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// pair matches a two-element list of atoms.
func pair(n Node) (string, string, error) {
	kids, err := list(n, "pair")
	if err != nil {
		return "", "", err
	}
	if len(kids) != 2 {
		return "", "", NewBadTerm("pair of strings expected", n)
	}
	first, err := atom(kids[0], "string")
	if err != nil {
		return "", "", err
	}
	second, err := atom(kids[1], "string")
	if err != nil {
		return "", "", err
	}
	return first, second, nil
}

// IsSlice reports whether the node's outer shape is a slice, without
// parsing the whole tree. Used by the normaliser to detect terms that
// are already in normal form.
func IsSlice(n Node) bool {
	return n.Kind == KindAppl && n.Text == "Slice"
}

// ParseInclude parses an Include(id) node.
func ParseInclude(n Node) (Include, error) {
	if n.Kind != KindAppl || n.Text != "Include" || len(n.Kids) != 1 {
		return Include{}, NewBadTerm("not an include", n)
	}
	id, err := parseID(n.Kids[0])
	if err != nil {
		return Include{}, err
	}
	return Include{ID: id}, nil
}

// ParseDerive parses a Derive(outs, ins, builder, platform, bindings) node.
//
// Duplicate outputs or bindings are not rejected here, and the
// normaliser does not check for them either: a repeated binding name
// takes the value of its last occurrence, and a repeated output appears
// in the resulting slice once per occurrence.
func ParseDerive(n Node) (Derive, error) {
	if n.Kind != KindAppl || n.Text != "Derive" || len(n.Kids) != 5 {
		return Derive{}, NewBadTerm("not a derive", n)
	}

	var d Derive
	var err error

	outNodes, err := list(n.Kids[0], "output list")
	if err != nil {
		return Derive{}, err
	}
	for _, outNode := range outNodes {
		path, idStr, err := pair(outNode)
		if err != nil {
			return Derive{}, err
		}
		id, err := ParseID(idStr)
		if err != nil {
			return Derive{}, NewBadTerm("not an id", outNode)
		}
		d.Outs = append(d.Outs, OutSpec{Path: path, ID: id})
	}

	if d.Ins, err = parseIDs(n.Kids[1]); err != nil {
		return Derive{}, err
	}
	if d.Builder, err = atom(n.Kids[2], "builder path"); err != nil {
		return Derive{}, err
	}
	if d.Platform, err = atom(n.Kids[3], "platform"); err != nil {
		return Derive{}, err
	}

	bndNodes, err := list(n.Kids[4], "binding list")
	if err != nil {
		return Derive{}, err
	}
	for _, bndNode := range bndNodes {
		name, value, err := pair(bndNode)
		if err != nil {
			return Derive{}, err
		}
		d.Bindings = append(d.Bindings, Binding{Name: name, Value: value})
	}

	return d, nil
}

// ParseSlice parses a Slice(roots, elems) node.
func ParseSlice(n Node) (Slice, error) {
	if n.Kind != KindAppl || n.Text != "Slice" || len(n.Kids) != 2 {
		return Slice{}, NewBadTerm("not a slice", n)
	}

	var s Slice
	var err error

	if s.Roots, err = parseIDs(n.Kids[0]); err != nil {
		return Slice{}, err
	}

	elemNodes, err := list(n.Kids[1], "element list")
	if err != nil {
		return Slice{}, err
	}
	for _, elemNode := range elemNodes {
		kids, err := list(elemNode, "slice element")
		if err != nil {
			return Slice{}, err
		}
		if len(kids) != 3 {
			return Slice{}, NewBadTerm("not a slice element", elemNode)
		}
		var elem SliceElem
		if elem.Path, err = atom(kids[0], "path"); err != nil {
			return Slice{}, err
		}
		if elem.ID, err = parseID(kids[1]); err != nil {
			return Slice{}, err
		}
		if elem.Refs, err = parseIDs(kids[2]); err != nil {
			return Slice{}, err
		}
		s.Elems = append(s.Elems, elem)
	}

	return s, nil
}
