// Package diskspace answers "how many bytes are free on the filesystem
// containing this path". The result is consumed as an opaque quantity by the
// admission controller.
package diskspace

import (
	"fmt"
	"path/filepath"
)

// QueryFunc returns the available bytes for the filesystem containing path.
// The admission controller takes one of these so tests can substitute a fake.
type QueryFunc func(path string) (uint64, error)

// Available reports the bytes available to an unprivileged caller on the
// filesystem containing path. When path does not exist yet, the nearest
// existing ancestor is queried instead, so a destination that is about to be
// created still resolves to the right filesystem.
func Available(path string) (uint64, error) {
	probe := path
	for {
		avail, err := available(probe)
		if err == nil {
			return avail, nil
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return 0, fmt.Errorf("query disk space for %s: %w", path, err)
		}
		probe = parent
	}
}
