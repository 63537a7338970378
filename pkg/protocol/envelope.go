package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ProtocolVersion is the negotiated protocol version string carried in the
// Probe and Established handshake messages.
const ProtocolVersion = "0.1.0"

// MaxPayloadSize is the maximum declared payload length of a single envelope.
// A peer declaring a larger length is treated as a protocol violation before
// any payload allocation happens.
const MaxPayloadSize = 1024 * 1024

var (
	// ErrOversized indicates an envelope declared a payload length above MaxPayloadSize.
	ErrOversized = errors.New("oversized message")
	// ErrTruncated indicates the stream closed in the middle of an envelope.
	ErrTruncated = errors.New("truncated message")
	// ErrUnexpectedType indicates a message type that is invalid for the current state.
	ErrUnexpectedType = errors.New("unexpected message type")
	// ErrSessionMismatch indicates a reply carrying a different session id than ours.
	ErrSessionMismatch = errors.New("session id mismatch")
)

// WriteEnvelope writes one framed message: a 1-byte type tag, a 4-byte
// big-endian payload length, then the payload. The frame is assembled into a
// single buffer and written with one call, so the message hits the wire whole.
func WriteEnvelope(w io.Writer, msgType byte, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes", ErrOversized, len(payload))
	}
	frame := make([]byte, 5+len(payload))
	frame[0] = msgType
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(payload)))
	copy(frame[5:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

// ReadEnvelope blocks until a full envelope is available and returns its type
// tag and payload. The declared length is validated against MaxPayloadSize
// before the payload buffer is allocated.
func ReadEnvelope(r io.Reader) (byte, []byte, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		// A clean EOF on the frame boundary is not truncation; callers use it
		// to detect the orderly end of a session.
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, wrapTruncated("read envelope header", err)
	}
	msgType := header[0]
	length := binary.BigEndian.Uint32(header[1:5])
	if length > MaxPayloadSize {
		return 0, nil, fmt.Errorf("%w: declared %d bytes", ErrOversized, length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, wrapTruncated("read envelope payload", err)
	}
	return msgType, payload, nil
}

// WriteRaw writes unframed bytes to the stream. File content travels this way
// during streaming: the total length is already known from TransferStart, so
// re-framing every chunk would be pure overhead.
func WriteRaw(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write raw bytes: %w", err)
	}
	return nil
}

// ReadRaw fills buf with unframed bytes from the stream. A short read is
// reported as a truncated stream.
func ReadRaw(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return wrapTruncated("read raw bytes", err)
	}
	return nil
}

func wrapTruncated(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w", op, ErrTruncated)
	}
	return fmt.Errorf("%s: %w", op, err)
}
