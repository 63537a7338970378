package checksum

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestStreamingEquivalence(t *testing.T) {
	data := make([]byte, 1<<16)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	whole := New()
	whole.Update(data)
	want := whole.Finalize()

	tests := []struct {
		name   string
		chunks []int
	}{
		{name: "two halves", chunks: []int{1 << 15, 1 << 15}},
		{name: "byte then rest", chunks: []int{1, 1<<16 - 1}},
		{name: "uneven", chunks: []int{7, 8192, 13, 1<<16 - 7 - 8192 - 13}},
		{name: "with empty updates", chunks: []int{0, 1 << 16, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			off := 0
			for _, n := range tt.chunks {
				e.Update(data[off : off+n])
				off += n
			}
			got := e.Finalize()
			if !bytes.Equal(got, want) {
				t.Errorf("chunked digest %x != whole digest %x", got, want)
			}
		})
	}
}

func TestDigestSize(t *testing.T) {
	e := New()
	e.Update([]byte("hello world"))
	if got := e.Finalize(); len(got) != DigestSize {
		t.Errorf("digest size = %d, want %d", len(got), DigestSize)
	}
}

func TestDifferentInputsDiffer(t *testing.T) {
	a := New()
	a.Update([]byte("hello world"))
	b := New()
	b.Update([]byte("hello worle"))
	if bytes.Equal(a.Finalize(), b.Finalize()) {
		t.Error("digests of different inputs are equal")
	}
}

func TestSumFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := make([]byte, 200*1024) // spans multiple read chunks
	if _, err := rand.Read(content); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := SumFile(path)
	if err != nil {
		t.Fatalf("SumFile() error = %v", err)
	}

	e := New()
	e.Update(content)
	if want := e.Finalize(); !bytes.Equal(got, want) {
		t.Errorf("SumFile() = %x, want %x", got, want)
	}
}

func TestSumFileMissing(t *testing.T) {
	if _, err := SumFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("SumFile() on missing file succeeded, want error")
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		alg  string
		want bool
	}{
		{AlgXXH64, true},
		{AlgNone, true},
		{"", true},
		{"sha256", false},
		{"crc32", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.alg); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.alg, got, tt.want)
		}
	}
}
