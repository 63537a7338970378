package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func relPaths(m Manifest) []string {
	paths := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		paths = append(paths, e.RelPath)
	}
	return paths
}

func TestScanSingleFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	writeFile(t, file, 42)

	m, err := Scan(file)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(m.Entries) != 1 {
		t.Fatalf("Scan() entries = %d, want 1", len(m.Entries))
	}
	e := m.Entries[0]
	if e.RelPath != "notes.txt" || e.IsDir || e.Size != 42 {
		t.Errorf("entry = %+v, want notes.txt file of 42 bytes", e)
	}
	if m.TotalBytes != 42 || m.FileCount != 1 || m.DirCount != 0 {
		t.Errorf("totals = %d bytes, %d files, %d dirs", m.TotalBytes, m.FileCount, m.DirCount)
	}
}

func TestScanOrdering(t *testing.T) {
	// root/{a.txt, b/ (containing c.txt)}: the directory and its contents
	// come before the sibling file.
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 1)
	writeFile(t, filepath.Join(dir, "b", "c.txt"), 2)

	m, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{"b", "b/c.txt", "a.txt"}
	got := relPaths(m)
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}

func TestScanDeepTreeOrdering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "z.txt"), 1)
	writeFile(t, filepath.Join(dir, "a.txt"), 1)
	writeFile(t, filepath.Join(dir, "sub", "inner", "deep.txt"), 3)
	writeFile(t, filepath.Join(dir, "sub", "x.txt"), 2)
	writeFile(t, filepath.Join(dir, "alpha", "f.txt"), 4)

	m, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{
		"alpha", "alpha/f.txt",
		"sub", "sub/inner", "sub/inner/deep.txt", "sub/x.txt",
		"a.txt", "z.txt",
	}
	got := relPaths(m)
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}

	// Every directory precedes all of its descendants.
	seen := map[string]int{}
	for i, p := range got {
		seen[p] = i
	}
	for _, e := range m.Entries {
		if e.IsDir {
			continue
		}
		parent := filepath.Dir(e.RelPath)
		if parent == "." {
			continue
		}
		if seen[parent] > seen[e.RelPath] {
			t.Errorf("directory %s enumerated after its child %s", parent, e.RelPath)
		}
	}
}

func TestScanTotals(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.bin"), 100)
	writeFile(t, filepath.Join(dir, "nested", "two.bin"), 250)

	m, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if m.TotalBytes != 350 {
		t.Errorf("TotalBytes = %d, want 350 (directories contribute no bytes)", m.TotalBytes)
	}
	if m.FileCount != 2 || m.DirCount != 1 {
		t.Errorf("counts = %d files, %d dirs, want 2 files, 1 dir", m.FileCount, m.DirCount)
	}
}

func TestScanMissingPath(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("Scan() on missing path succeeded, want error")
	}
}
