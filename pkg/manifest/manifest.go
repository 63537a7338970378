// Package manifest enumerates a source path into the ordered sequence of
// entries a transfer session walks through.
package manifest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// Entry represents a single file or directory to transfer.
type Entry struct {
	RelPath     string // Relative path with forward slashes
	AbsPath     string // Absolute path on the local filesystem
	Size        uint64 // File size in bytes (0 for directories)
	Mode        uint32 // Permission bits
	ModTime     int64  // Modification time as Unix seconds
	IsDir       bool   // True if this is a directory
	ChecksumAlg string // Checksum algorithm id, set by the sender
	Checksum    []byte // Whole-content checksum, empty until computed
}

// Manifest is the complete ordered snapshot of a source path.
type Manifest struct {
	Root       string // Base name of the root path
	Entries    []Entry
	TotalBytes uint64 // Sum of file sizes (directories contribute nothing)
	FileCount  int
	DirCount   int
}

// Scan enumerates rootPath into a manifest. A single file yields exactly one
// entry named by its base name. A directory yields one entry per directory
// and per file, each RelPath relative to rootPath.
//
// Ordering invariant: within each directory level, directories come before
// files and peers sort lexicographically; a directory entry is immediately
// followed by its descendants, so a directory always precedes everything it
// contains.
func Scan(rootPath string) (Manifest, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, fmt.Errorf("path does not exist: %s", rootPath)
		}
		return Manifest{}, fmt.Errorf("cannot access path: %w", err)
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return Manifest{}, fmt.Errorf("cannot get absolute path: %w", err)
	}

	m := Manifest{Root: filepath.Base(absRoot)}

	if !info.IsDir() {
		m.Entries = append(m.Entries, Entry{
			RelPath: filepath.Base(absRoot),
			AbsPath: absRoot,
			Size:    uint64(info.Size()),
			Mode:    uint32(info.Mode().Perm()),
			ModTime: info.ModTime().Unix(),
		})
		m.FileCount = 1
		m.TotalBytes = uint64(info.Size())
		return m, nil
	}

	if err := walkLevel(absRoot, "", &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// walkLevel appends one directory level to the manifest: child directories
// first (each immediately followed by its own subtree), then child files.
func walkLevel(absDir, relDir string, m *Manifest) error {
	dirEntries, err := os.ReadDir(absDir)
	if err != nil {
		return fmt.Errorf("cannot read directory %s: %w", absDir, err)
	}

	sort.Slice(dirEntries, func(i, j int) bool {
		di, dj := dirEntries[i].IsDir(), dirEntries[j].IsDir()
		if di != dj {
			return di
		}
		return dirEntries[i].Name() < dirEntries[j].Name()
	})

	for _, de := range dirEntries {
		absChild := filepath.Join(absDir, de.Name())
		relChild := path.Join(relDir, de.Name())

		info, err := de.Info()
		if err != nil {
			return fmt.Errorf("cannot stat %s: %w", relChild, err)
		}

		entry := Entry{
			RelPath: relChild,
			AbsPath: absChild,
			Mode:    uint32(info.Mode().Perm()),
			ModTime: info.ModTime().Unix(),
			IsDir:   de.IsDir(),
		}
		if de.IsDir() {
			m.DirCount++
			m.Entries = append(m.Entries, entry)
			if err := walkLevel(absChild, relChild, m); err != nil {
				return err
			}
		} else {
			entry.Size = uint64(info.Size())
			m.FileCount++
			m.TotalBytes += entry.Size
			m.Entries = append(m.Entries, entry)
		}
	}
	return nil
}
