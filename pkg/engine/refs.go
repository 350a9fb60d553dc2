package engine

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Reference scanning
// ==================
//
// A build output references an input when the input's path appears
// literally in the output's bytes. That is a conservative
// over-approximation of "the output needs the input at run time", and
// it is the basis for slice closure: an element's refs are exactly the
// scanned references, translated back to ids.

// FilterReferences returns the candidates whose string form occurs in
// the byte content under path. The result preserves candidate order.
//
// Regular file contents and symlink targets are scanned; directory
// structure itself carries no references. Scanning stops early once
// every candidate has been found.
func FilterReferences(path string, candidates []string) ([]string, error) {
	remaining := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		remaining[candidate] = true
	}
	found := make(map[string]bool, len(candidates))

	scan := func(data []byte) {
		for candidate := range remaining {
			if bytes.Contains(data, []byte(candidate)) {
				found[candidate] = true
				delete(remaining, candidate)
			}
		}
	}

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return fs.SkipAll
		}
		switch {
		case d.Type().IsRegular():
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			scan(data)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			scan([]byte(link))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for references: %w", path, err)
	}

	result := make([]string, 0, len(found))
	for _, candidate := range candidates {
		if found[candidate] {
			result = append(result, candidate)
		}
	}
	return result, nil
}
