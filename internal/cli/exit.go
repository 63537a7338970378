package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ncp-tools/ncp/internal/retry"
	"github.com/ncp-tools/ncp/internal/transfer"
	"github.com/ncp-tools/ncp/pkg/protocol"
)

// Process exit codes.
const (
	ExitSuccess          = 0
	ExitGeneral          = 1
	ExitProtocol         = 2
	ExitIO               = 3
	ExitPermission       = 4
	ExitChecksum         = 5
	ExitNoSpace          = 6
	ExitRetriesExhausted = 11
)

// exitErr wraps err with the exit code its cause maps to.
func exitErr(err error) error {
	return cli.Exit(err.Error(), ExitCode(err))
}

// ExitCode maps an error to the process exit code. Specific causes win over
// the generic retries-exhausted code, so a run that kept failing on a checksum
// mismatch reports the mismatch.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, transfer.ErrChecksumMismatch) {
		return ExitChecksum
	}

	var remote *transfer.RemoteFailure
	if errors.As(err, &remote) {
		if code, ok := remoteCode(remote.Code); ok {
			return code
		}
	}
	var skip *transfer.SkipError
	if errors.As(err, &skip) {
		switch {
		case skip.AnyCode(protocol.CodeNoSpace):
			return ExitNoSpace
		case skip.AnyCode(protocol.CodePermission), skip.AnyCode(protocol.CodeConflict):
			return ExitPermission
		}
	}

	if errors.Is(err, protocol.ErrOversized) ||
		errors.Is(err, protocol.ErrTruncated) ||
		errors.Is(err, protocol.ErrUnexpectedType) ||
		errors.Is(err, protocol.ErrSessionMismatch) {
		return ExitProtocol
	}

	if os.IsPermission(err) {
		return ExitPermission
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return ExitIO
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return ExitRetriesExhausted
	}
	return ExitGeneral
}

func remoteCode(code uint32) (int, bool) {
	switch code {
	case protocol.CodeChecksum:
		return ExitChecksum, true
	case protocol.CodeNoSpace:
		return ExitNoSpace, true
	case protocol.CodePermission, protocol.CodeConflict:
		return ExitPermission, true
	default:
		return 0, false
	}
}
