package badger

import "github.com/marmos91/depot/pkg/term"

// Database Key Namespace Design
// =============================
//
// BadgerDB is a key-value store, so the three engine relations share one
// database under namespaced key prefixes:
//
// Relation            Prefix   Key Format              Value
// ================================================================
// path → id           "p:"     p:<path>                id hex string
// id → successor      "s:"     s:<idhex>               id hex string
// id → paths          "i:"     i:<idhex>:<path>        (empty)
//
// The reverse index is denormalised: one key per (id, path) pair, so
// listing the materialisations of an id is a single range scan over
// "i:<idhex>:" and registering a path sets exactly two keys (and deletes
// the old reverse key when the path moves to another id). Ids are
// keyed by their hex printing; the colon separator is safe because hex
// never contains one and the path component is always last.

const (
	// prefixPathID is the key prefix for path → id entries
	prefixPathID = "p:"

	// prefixSuccessor is the key prefix for the successor memo
	prefixSuccessor = "s:"

	// prefixIDPath is the key prefix for the id → paths reverse index
	prefixIDPath = "i:"
)

func keyPathID(path string) []byte {
	return []byte(prefixPathID + path)
}

func keySuccessor(id term.ID) []byte {
	return []byte(prefixSuccessor + id.String())
}

func keyIDPath(id term.ID, path string) []byte {
	return []byte(prefixIDPath + id.String() + ":" + path)
}

func keyIDPathScanPrefix(id term.ID) []byte {
	return []byte(prefixIDPath + id.String() + ":")
}
