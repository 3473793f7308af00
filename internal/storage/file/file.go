// Package file implements the JSON-file persistence backend. Each collection
// lives in a single file holding one top-level array; every write replaces
// the whole file.
//
// A per-store mutex serializes read-modify-write cycles inside one process.
// Across processes there is no locking: two writers racing on the same file
// clobber each other and the last write wins. That contract is intentional.
package file

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// readCollection decodes the array stored at path. A missing file is an
// empty collection, not an error.
func readCollection[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return records, nil
}

// writeCollection replaces the file at path with the given array, creating
// the parent directory when missing. Output formatting is stable (two-space
// indent) so repeated writes of equal data produce identical bytes.
func writeCollection[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", path)
	}

	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
