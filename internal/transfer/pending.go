package transfer

import (
	"fmt"
	"io/fs"
	"os"
)

const tempSuffix = ".ncp-part"

// pendingWrite is the receiver's in-flight temporary file for one entry. It
// is owned exclusively by the receiver during streaming and is either
// promoted to the final path or removed; the final path is never written
// directly.
type pendingWrite struct {
	file      *os.File
	tempPath  string
	finalPath string
}

func newPendingWrite(finalPath string, mode fs.FileMode) (*pendingWrite, error) {
	if mode == 0 {
		mode = 0o644
	}
	tempPath := finalPath + tempSuffix
	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return nil, fmt.Errorf("create temp file %s: %w", tempPath, err)
	}
	return &pendingWrite{file: f, tempPath: tempPath, finalPath: finalPath}, nil
}

func (p *pendingWrite) Write(data []byte) error {
	if _, err := p.file.Write(data); err != nil {
		return fmt.Errorf("write temp file %s: %w", p.tempPath, err)
	}
	return nil
}

// Commit closes the temp file and atomically renames it over the final path.
func (p *pendingWrite) Commit() error {
	if err := p.file.Close(); err != nil {
		_ = os.Remove(p.tempPath)
		return fmt.Errorf("close temp file %s: %w", p.tempPath, err)
	}
	if err := os.Rename(p.tempPath, p.finalPath); err != nil {
		_ = os.Remove(p.tempPath)
		return fmt.Errorf("rename %s to %s: %w", p.tempPath, p.finalPath, err)
	}
	return nil
}

// Abort closes and deletes the temp file, leaving the final path untouched.
func (p *pendingWrite) Abort() {
	_ = p.file.Close()
	_ = os.Remove(p.tempPath)
}
