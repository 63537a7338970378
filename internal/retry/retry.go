// Package retry wraps sender attempts in a fixed-backoff retry loop. Every
// attempt is a complete session: a fresh enumeration of the source, a fresh
// connection, and a fresh session id.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ncp-tools/ncp/internal/transfer"
	"github.com/ncp-tools/ncp/internal/transport"
	"github.com/ncp-tools/ncp/pkg/manifest"
)

// DefaultBackoff is the pause between consecutive attempts.
const DefaultBackoff = time.Second

// ExhaustedError reports that every attempt failed. It wraps the last
// attempt's error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Orchestrator runs sender sessions until one succeeds or the attempt budget
// is spent.
type Orchestrator struct {
	Dialer      transport.Dialer
	MaxAttempts int
	Backoff     time.Duration
	ClientName  string
	Checksum    bool
	Logger      *slog.Logger
}

// Run transfers sourcePath, retrying failed attempts. It returns nil on the
// first successful attempt and the last attempt's error once the budget is
// exhausted.
func (o *Orchestrator) Run(ctx context.Context, sourcePath string) error {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	backoff := o.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var lastErr error
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		if attempt > 1 {
			o.Logger.Info("retrying", "attempt", attempt, "max_attempts", o.MaxAttempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = o.attempt(ctx, sourcePath)
		if lastErr == nil {
			return nil
		}
		o.Logger.Warn("attempt failed", "attempt", attempt, "error", lastErr)
	}
	return &ExhaustedError{Attempts: o.MaxAttempts, Err: lastErr}
}

// attempt runs one complete session. The source is re-enumerated every time
// so a changed tree is picked up on retry.
func (o *Orchestrator) attempt(ctx context.Context, sourcePath string) error {
	m, err := manifest.Scan(sourcePath)
	if err != nil {
		return err
	}
	o.Logger.Debug("source enumerated",
		"entries", len(m.Entries), "files", m.FileCount, "dirs", m.DirCount)

	stream, err := o.Dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer stream.Close()

	return transfer.RunSender(stream, m, transfer.SenderOptions{
		ClientName:      o.ClientName,
		ChecksumEnabled: o.Checksum,
		Logger:          o.Logger,
	})
}
