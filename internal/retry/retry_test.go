package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ncp-tools/ncp/internal/admission"
	"github.com/ncp-tools/ncp/internal/transfer"
	"github.com/ncp-tools/ncp/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pipeDialer hands out one end of a fresh in-memory pipe per dial and runs a
// receiver session on the other end.
type pipeDialer struct {
	dials  atomic.Int32
	policy admission.OverwritePolicy
	target string
}

func (d *pipeDialer) Dial(ctx context.Context) (transport.Stream, error) {
	d.dials.Add(1)
	client, server := net.Pipe()
	ctrl := admission.New(d.target, d.policy, nil, testLogger())
	go func() {
		defer server.Close()
		_ = transfer.RunReceiver(server, ctrl, transfer.ReceiverOptions{
			ChecksumEnabled: true,
			Logger:          testLogger(),
		})
	}()
	return client, nil
}

func sourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestFirstAttemptSucceeds(t *testing.T) {
	src := sourceFile(t, "ok.txt", "content")
	dialer := &pipeDialer{policy: admission.AlwaysYes, target: t.TempDir()}
	o := &Orchestrator{
		Dialer:      dialer,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		ClientName:  "test",
		Checksum:    true,
		Logger:      testLogger(),
	}
	if err := o.Run(context.Background(), src); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := dialer.dials.Load(); got != 1 {
		t.Errorf("dials = %d, want 1", got)
	}
}

func TestExhaustsAttemptsAgainstRejectingReceiver(t *testing.T) {
	src := sourceFile(t, "rejected.txt", "content")
	target := t.TempDir()
	// The destination exists and the policy never overwrites, so every
	// attempt ends with the entry skipped.
	if err := os.WriteFile(filepath.Join(target, "rejected.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	dialer := &pipeDialer{policy: admission.AlwaysNo, target: target}
	o := &Orchestrator{
		Dialer:      dialer,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		ClientName:  "test",
		Checksum:    true,
		Logger:      testLogger(),
	}

	err := o.Run(context.Background(), src)
	if err == nil {
		t.Fatal("Run() succeeded, want error")
	}
	if got := dialer.dials.Load(); got != 3 {
		t.Errorf("dials = %d, want 3", got)
	}
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("error %q does not mention the attempt count", err)
	}
	var skipErr *transfer.SkipError
	if !errors.As(err, &skipErr) {
		t.Errorf("error %v does not unwrap to SkipError", err)
	}
}

func TestRunMissingSource(t *testing.T) {
	dialer := &pipeDialer{policy: admission.AlwaysYes, target: t.TempDir()}
	o := &Orchestrator{
		Dialer:      dialer,
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
		Logger:      testLogger(),
	}
	if err := o.Run(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("Run() with missing source succeeded, want error")
	}
}

func TestRunCancelledDuringBackoff(t *testing.T) {
	src := sourceFile(t, "rejected.txt", "content")
	target := t.TempDir()
	if err := os.WriteFile(filepath.Join(target, "rejected.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	dialer := &pipeDialer{policy: admission.AlwaysNo, target: target}
	o := &Orchestrator{
		Dialer:      dialer,
		MaxAttempts: 10,
		Backoff:     time.Hour,
		Logger:      testLogger(),
	}
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	err := o.Run(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
