// Package atomicfile implements the atomic-write discipline described
// in spec.md §6: write to a sibling temp file, fsync, rename over the
// destination, and best-effort clean up the temp file on any failure.
// No pack example ships a writer at all (teacher only ever reads), so
// this collaborator is grounded directly on spec.md §6/§7's stated
// contract rather than on a teacher analogue.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	tempPrefix = ".taglib_"
	tempSuffix = ".tmp"
)

// Write atomically replaces path's contents with data: it creates a
// sibling temp file (same directory, so the final rename stays on one
// filesystem), writes data, fsyncs, closes, and renames the temp file
// over path. If any step fails, the temp file is removed (best effort)
// and path is left untouched.
func Write(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(path)+"*"+tempSuffix)
	if err != nil {
		return errors.Wrap(err, "atomicfile: create temp file")
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "atomicfile: write temp file")
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "atomicfile: fsync temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "atomicfile: close temp file")
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return errors.Wrap(err, "atomicfile: chmod temp file")
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "atomicfile: rename temp file over destination")
	}
	return nil
}
