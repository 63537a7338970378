package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

const dialTimeout = 5 * time.Second

type tcpDialer struct {
	addr   string
	logger *slog.Logger
}

func (d *tcpDialer) Dial(ctx context.Context) (Stream, error) {
	nd := net.Dialer{Timeout: dialTimeout}
	conn, err := nd.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", d.addr, err)
	}
	d.logger.Debug("tcp connection established", "remote_addr", conn.RemoteAddr())
	return conn, nil
}

type tcpListener struct {
	ln     net.Listener
	logger *slog.Logger
}

func listenTCP(addr string, logger *slog.Logger) (Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen tcp %s: %w", addr, err)
	}
	return &tcpListener{ln: ln, logger: logger}, nil
}

// Accept waits for the next connection, honoring context cancellation by
// closing the listener.
func (l *tcpListener) Accept(ctx context.Context) (Stream, error) {
	type res struct {
		conn net.Conn
		err  error
	}
	ch := make(chan res, 1)
	go func() {
		c, err := l.ln.Accept()
		ch <- res{conn: c, err: err}
	}()
	select {
	case <-ctx.Done():
		_ = l.ln.Close()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("accept tcp: %w", r.err)
		}
		l.logger.Debug("tcp connection accepted", "remote_addr", r.conn.RemoteAddr())
		return r.conn, nil
	}
}

func (l *tcpListener) Addr() string {
	return l.ln.Addr().String()
}

func (l *tcpListener) Close() error {
	return l.ln.Close()
}
