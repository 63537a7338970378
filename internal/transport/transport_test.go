package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTCPRoundTrip(t *testing.T) {
	ln, err := NewListener("tcp", "127.0.0.1:0", testLogger())
	if err != nil {
		t.Fatalf("NewListener() error = %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accepted := make(chan Stream, 1)
	go func() {
		s, err := ln.Accept(ctx)
		if err != nil {
			t.Errorf("Accept() error = %v", err)
			return
		}
		accepted <- s
	}()

	d, err := NewDialer("tcp", ln.Addr(), testLogger())
	if err != nil {
		t.Fatalf("NewDialer() error = %v", err)
	}
	client, err := d.Dial(ctx)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	server := <-accepted
	defer server.Close()

	payload := []byte("ping across loopback")
	if _, err := client.Write(payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(server, got); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("received %q, want %q", got, payload)
	}
}

func TestTCPAcceptCancelled(t *testing.T) {
	ln, err := NewListener("tcp", "127.0.0.1:0", testLogger())
	if err != nil {
		t.Fatalf("NewListener() error = %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ln.Accept(ctx); err == nil {
		t.Fatal("Accept() with cancelled context succeeded, want error")
	}
}

func TestUnknownTransportKind(t *testing.T) {
	if _, err := NewDialer("udp", "127.0.0.1:1", testLogger()); err == nil {
		t.Error("NewDialer(udp) succeeded, want error")
	}
	if _, err := NewListener("udp", "127.0.0.1:0", testLogger()); err == nil {
		t.Error("NewListener(udp) succeeded, want error")
	}
}

func TestQUICRoundTrip(t *testing.T) {
	ln, err := NewListener("quic", "127.0.0.1:0", testLogger())
	if err != nil {
		t.Fatalf("NewListener() error = %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accepted := make(chan Stream, 1)
	go func() {
		s, err := ln.Accept(ctx)
		if err != nil {
			t.Errorf("Accept() error = %v", err)
			return
		}
		accepted <- s
	}()

	d, err := NewDialer("quic", ln.Addr(), testLogger())
	if err != nil {
		t.Fatalf("NewDialer() error = %v", err)
	}
	client, err := d.Dial(ctx)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	payload := []byte("ping over quic")
	if _, err := client.Write(payload); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	server := <-accepted
	defer server.Close()

	got := make([]byte, len(payload))
	if _, err := io.ReadFull(server, got); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("received %q, want %q", got, payload)
	}
}
