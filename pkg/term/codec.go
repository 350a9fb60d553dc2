package term

import (
	"bytes"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// Canonical term encoding
// =======================
//
// Terms are serialised with XDR, which is deterministic by construction:
// fixed-width discriminants, big-endian integers, length-prefixed strings
// and arrays, no optional fields. Two structurally equal trees therefore
// always produce identical bytes, which is what makes hashing the
// encoding a usable identity.
//
// The Node struct marshals directly: Kind as a uint32 discriminant, Text
// as an XDR string, Kids as a counted array of nested nodes.

// Encode serialises a node into its canonical byte form.
func Encode(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &n); err != nil {
		return nil, fmt.Errorf("encode term: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserialises a canonical byte form back into a node.
//
// Trailing garbage is rejected: the encoding of a term is exactly one
// tree, so a short read means the bytes were not produced by Encode.
func Decode(data []byte) (Node, error) {
	var n Node
	read, err := xdr.Unmarshal(bytes.NewReader(data), &n)
	if err != nil {
		return Node{}, fmt.Errorf("decode term: %w", err)
	}
	if read != len(data) {
		return Node{}, fmt.Errorf("decode term: %d trailing bytes", len(data)-read)
	}
	return n, nil
}
