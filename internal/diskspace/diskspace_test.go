package diskspace

import (
	"path/filepath"
	"testing"
)

func TestAvailable(t *testing.T) {
	avail, err := Available(t.TempDir())
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if avail == 0 {
		t.Error("Available() = 0, expected some free space in the temp dir")
	}
}

func TestAvailableNonexistentPath(t *testing.T) {
	// A path that does not exist yet resolves via its nearest existing
	// ancestor, since the destination is about to be created there.
	path := filepath.Join(t.TempDir(), "not", "created", "yet", "file.bin")
	avail, err := Available(path)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if avail == 0 {
		t.Error("Available() = 0 for a creatable path")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{10 * 1024 * 1024, "10.0 MB"},
		{1024 * 1024 * 1024, "1.0 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
