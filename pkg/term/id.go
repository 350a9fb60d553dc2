package term

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// IDSize is the width in bytes of a content digest.
const IDSize = sha256.Size

// ID is a fixed-width content digest.
//
// The same type identifies terms (digest of the canonical encoding) and
// filesystem contents (digest of the file bytes). Equality is bytewise;
// the canonical printing is lowercase hex.
type ID [IDSize]byte

// String returns the canonical lowercase hex form of the id.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseID parses the canonical lowercase hex form of an id.
//
// The input must be exactly 2*IDSize hex characters; anything else is
// rejected so that corrupt database values surface immediately.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != 2*IDSize {
		return id, fmt.Errorf("invalid id %q: expected %d hex characters", s, 2*IDSize)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid id %q: %w", s, err)
	}
	copy(id[:], raw)
	return id, nil
}

// HashBytes returns the digest of the given bytes.
func HashBytes(data []byte) ID {
	return sha256.Sum256(data)
}

// HashTerm returns the digest of the canonical encoding of the node.
func HashTerm(n Node) (ID, error) {
	data, err := Encode(n)
	if err != nil {
		return ID{}, err
	}
	return HashBytes(data), nil
}
