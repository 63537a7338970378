package transfer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncp-tools/ncp/pkg/protocol"
)

// ErrChecksumMismatch indicates the received content failed verification.
// It is fatal to the session: the partially written temp artifact has been
// deleted and the sender must not assume anything about later entries.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// RemoteFailure is a failed TransferResult reported by the receiver.
type RemoteFailure struct {
	Code   uint32
	Reason string
}

func (e *RemoteFailure) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("peer reported failure: %s", e.Reason)
	}
	return fmt.Sprintf("peer reported failure: %s", protocol.CodeName(e.Code))
}

// SkippedEntry records one entry the receiver rejected at preflight.
type SkippedEntry struct {
	Path   string
	Code   uint32
	Reason string
}

// SkipError reports an attempt that ran to completion but had entries
// rejected at preflight. The session continued past each rejection; the
// attempt as a whole still counts as failed so the orchestrator retries.
type SkipError struct {
	Skipped []SkippedEntry
}

func (e *SkipError) Error() string {
	if len(e.Skipped) == 1 {
		s := e.Skipped[0]
		return fmt.Sprintf("entry %s rejected: %s", s.Path, s.Reason)
	}
	paths := make([]string, 0, len(e.Skipped))
	for _, s := range e.Skipped {
		paths = append(paths, s.Path)
	}
	return fmt.Sprintf("%d entries rejected: %s", len(e.Skipped), strings.Join(paths, ", "))
}

// AnyCode reports whether any skipped entry carries the given wire code.
func (e *SkipError) AnyCode(code uint32) bool {
	for _, s := range e.Skipped {
		if s.Code == code {
			return true
		}
	}
	return false
}
