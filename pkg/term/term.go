// Package term implements the expression language of the depot engine.
//
// A term is a labelled tree built from three node kinds: string atoms,
// lists, and applications of a label to argument nodes. Terms have a
// canonical binary encoding (see codec.go) whose SHA-256 digest is the
// term's identity, and a strict parser (see parse.go) that turns raw
// trees into the typed views the engine works with.
package term

import (
	"strconv"
	"strings"
)

// Kind discriminates the three node shapes of a term tree.
type Kind uint32

const (
	// KindAtom is a string literal node. Text holds the value.
	KindAtom Kind = iota

	// KindList is an ordered sequence of nodes. Kids holds the elements.
	KindList

	// KindAppl is an application of a label to argument nodes.
	// Text holds the label, Kids the arguments.
	KindAppl
)

// Node is one node of a term tree.
//
// Nodes are plain values; they are compared structurally and never
// mutated after construction. The zero Node is the empty atom.
type Node struct {
	// Kind selects which of the other fields are meaningful
	Kind Kind

	// Text is the atom value (KindAtom) or the application label (KindAppl)
	Text string

	// Kids are the list elements (KindList) or application arguments (KindAppl)
	Kids []Node
}

// Str builds an atom node.
func Str(s string) Node {
	return Node{Kind: KindAtom, Text: s}
}

// ListOf builds a list node from the given elements.
func ListOf(elems ...Node) Node {
	return Node{Kind: KindList, Kids: elems}
}

// Make builds an application node, e.g. Make("Include", Str(id)).
func Make(label string, args ...Node) Node {
	return Node{Kind: KindAppl, Text: label, Kids: args}
}

// String renders the node in a compact textual form, e.g.
//
//	Derive([["/depot/x","ab.."]],[],"/bin/sh","arm64-linux",[["n","v"]])
//
// The rendering is for error messages and the CLI only; the canonical
// form of a term is its binary encoding.
func (n Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n Node) write(sb *strings.Builder) {
	switch n.Kind {
	case KindAtom:
		sb.WriteString(strconv.Quote(n.Text))
	case KindList:
		sb.WriteByte('[')
		for i, kid := range n.Kids {
			if i > 0 {
				sb.WriteByte(',')
			}
			kid.write(sb)
		}
		sb.WriteByte(']')
	case KindAppl:
		sb.WriteString(n.Text)
		sb.WriteByte('(')
		for i, kid := range n.Kids {
			if i > 0 {
				sb.WriteByte(',')
			}
			kid.write(sb)
		}
		sb.WriteByte(')')
	}
}

// Equal reports whether two nodes are structurally identical.
func (n Node) Equal(other Node) bool {
	if n.Kind != other.Kind || n.Text != other.Text || len(n.Kids) != len(other.Kids) {
		return false
	}
	for i := range n.Kids {
		if !n.Kids[i].Equal(other.Kids[i]) {
			return false
		}
	}
	return true
}
