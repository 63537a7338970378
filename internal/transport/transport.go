// Package transport establishes the ordered, reliable byte stream the
// transfer protocol runs over. TCP is the primary transport; QUIC is an
// alternative carrying the identical protocol on a single bidirectional
// stream.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Stream is one established bidirectional byte stream to the peer.
type Stream interface {
	io.Reader
	io.Writer
	Close() error
}

// Dialer opens a stream to a remote peer.
type Dialer interface {
	Dial(ctx context.Context) (Stream, error)
}

// Listener accepts streams from remote peers, one at a time.
type Listener interface {
	Accept(ctx context.Context) (Stream, error)
	Addr() string
	Close() error
}

// NewDialer returns a dialer for the named transport kind.
func NewDialer(kind, addr string, logger *slog.Logger) (Dialer, error) {
	switch kind {
	case "tcp":
		return &tcpDialer{addr: addr, logger: logger}, nil
	case "quic":
		return &quicDialer{addr: addr, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}

// NewListener binds a listener for the named transport kind.
func NewListener(kind, addr string, logger *slog.Logger) (Listener, error) {
	switch kind {
	case "tcp":
		return listenTCP(addr, logger)
	case "quic":
		return listenQUIC(addr, logger)
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}
