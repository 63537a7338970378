package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/quic-go/quic-go"
)

// alpnProtocol is the ALPN identifier negotiated on QUIC connections.
const alpnProtocol = "ncp-quic-v1"

// The certificate is self-signed and the client skips verification: QUIC
// needs TLS as transport plumbing, but channel authentication is out of
// scope for this protocol.

func serverTLSConfig() (*tls.Config, error) {
	cert, err := generateSelfSignedCert()
	if err != nil {
		return nil, fmt.Errorf("generate self-signed certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{alpnProtocol},
	}, nil
}

func clientTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{alpnProtocol},
	}
}

func quicConfig() *quic.Config {
	return &quic.Config{
		KeepAlivePeriod: 10 * time.Second,
		MaxIdleTimeout:  30 * time.Second,
	}
}

func generateSelfSignedCert() (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"ncp"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  priv,
	}, nil
}

type quicDialer struct {
	addr   string
	logger *slog.Logger
}

// Dial establishes a QUIC connection and opens the single bidirectional
// stream the whole session runs over.
func (d *quicDialer) Dial(ctx context.Context) (Stream, error) {
	conn, err := quic.DialAddr(ctx, d.addr, clientTLSConfig(), quicConfig())
	if err != nil {
		return nil, fmt.Errorf("dial quic %s: %w", d.addr, err)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "open stream failed")
		return nil, fmt.Errorf("open quic stream: %w", err)
	}
	d.logger.Debug("quic connection established", "remote_addr", conn.RemoteAddr())
	return &quicStream{stream: stream, conn: conn}, nil
}

type quicListener struct {
	ln     *quic.Listener
	logger *slog.Logger
}

func listenQUIC(addr string, logger *slog.Logger) (Listener, error) {
	tlsConf, err := serverTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := quic.ListenAddr(addr, tlsConf, quicConfig())
	if err != nil {
		return nil, fmt.Errorf("listen quic %s: %w", addr, err)
	}
	return &quicListener{ln: ln, logger: logger}, nil
}

func (l *quicListener) Accept(ctx context.Context) (Stream, error) {
	conn, err := l.ln.Accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("accept quic: %w", err)
	}
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "accept stream failed")
		return nil, fmt.Errorf("accept quic stream: %w", err)
	}
	l.logger.Debug("quic connection accepted", "remote_addr", conn.RemoteAddr())
	return &quicStream{stream: stream, conn: conn}, nil
}

func (l *quicListener) Addr() string {
	return l.ln.Addr().String()
}

func (l *quicListener) Close() error {
	return l.ln.Close()
}

// quicStream ties the session stream to its connection so closing the stream
// tears the connection down with it.
type quicStream struct {
	stream *quic.Stream
	conn   *quic.Conn
}

func (s *quicStream) Read(p []byte) (int, error) {
	return s.stream.Read(p)
}

func (s *quicStream) Write(p []byte) (int, error) {
	return s.stream.Write(p)
}

func (s *quicStream) Close() error {
	err := s.stream.Close()
	if cerr := s.conn.CloseWithError(0, ""); err == nil {
		err = cerr
	}
	return err
}
