// Package transfer drives both sides of the transfer session state machine:
// handshake, then a strict meta/preflight/data/result exchange per entry. One
// envelope is read or written at a time; each phase blocks until the peer's
// matching reply arrives.
package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/ncp-tools/ncp/internal/checksum"
	"github.com/ncp-tools/ncp/pkg/protocol"
)

// DefaultKeepaliveSeconds is the keepalive interval proposed in the Probe.
// It is advisory session metadata; nothing in the protocol enforces it.
const DefaultKeepaliveSeconds = 30

// Session is the shared state of one established connection. It is created
// by the handshake and lives until the connection closes.
type Session struct {
	ID           string
	Version      string
	Capabilities []string
	Keepalive    time.Duration
}

// NewSession creates a session with a fresh random id, as proposed by the
// sending side in its Probe.
func NewSession() Session {
	return Session{
		ID:           uuid.NewString(),
		Version:      protocol.ProtocolVersion,
		Capabilities: []string{checksum.AlgXXH64},
		Keepalive:    DefaultKeepaliveSeconds * time.Second,
	}
}
