package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// Message is one decoded protocol message. Concrete types are Probe,
// Established, Meta, PreflightOk, PreflightFail, TransferStart and
// TransferResult.
type Message interface {
	MsgType() byte
	encode(b *bytes.Buffer) error
	decode(r *fieldReader) error
}

// Probe opens the handshake. The sender proposes a session id and announces
// its identity and requested keepalive.
type Probe struct {
	SessionID        string
	Version          string
	ClientName       string
	Capabilities     []string
	KeepaliveSeconds uint32
}

// Established is the receiver's handshake reply. It must echo the proposed
// session id; a different id is fatal to the connection.
type Established struct {
	SessionID    string
	Version      string
	Capabilities []string
	ServerTime   int64
}

// FileMeta describes one entry offered for transfer.
type FileMeta struct {
	Name        string
	Size        uint64
	IsDir       bool
	Mode        uint32
	ModTime     int64
	ChecksumAlg string
	Checksum    []byte
	Attrs       map[string]string
}

// Meta offers one entry to the receiver ahead of any data.
type Meta struct {
	SessionID string
	File      FileMeta
}

// PreflightOk accepts an offered entry.
type PreflightOk struct {
	SessionID         string
	DestinationExists bool
	AvailableSpace    uint64
}

// PreflightFail rejects an offered entry.
type PreflightFail struct {
	SessionID string
	Code      uint32
	Reason    string
}

// TransferStart announces that exactly FileSize raw bytes follow, unframed.
type TransferStart struct {
	SessionID string
	FileSize  uint64
}

// TransferResult is the receiver's terminal verdict for one streamed entry.
type TransferResult struct {
	SessionID     string
	Ok            bool
	Code          uint32
	Reason        string
	Checksum      []byte
	ReceivedBytes uint64
}

func (Probe) MsgType() byte          { return TypeProbe }
func (Established) MsgType() byte    { return TypeEstablished }
func (Meta) MsgType() byte           { return TypeMeta }
func (PreflightOk) MsgType() byte    { return TypePreflightOk }
func (PreflightFail) MsgType() byte  { return TypePreflightFail }
func (TransferStart) MsgType() byte  { return TypeTransferStart }
func (TransferResult) MsgType() byte { return TypeTransferResult }

// WriteMessage encodes m and writes it as one framed envelope.
func WriteMessage(w io.Writer, m Message) error {
	var buf bytes.Buffer
	if err := m.encode(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", TypeName(m.MsgType()), err)
	}
	return WriteEnvelope(w, m.MsgType(), buf.Bytes())
}

// ReadMessage reads one envelope and decodes it into its concrete type.
func ReadMessage(r io.Reader) (Message, error) {
	msgType, payload, err := ReadEnvelope(r)
	if err != nil {
		return nil, err
	}
	var m Message
	switch msgType {
	case TypeProbe:
		m = &Probe{}
	case TypeEstablished:
		m = &Established{}
	case TypeMeta:
		m = &Meta{}
	case TypePreflightOk:
		m = &PreflightOk{}
	case TypePreflightFail:
		m = &PreflightFail{}
	case TypeTransferStart:
		m = &TransferStart{}
	case TypeTransferResult:
		m = &TransferResult{}
	default:
		return nil, fmt.Errorf("%w: tag 0x%02x", ErrUnexpectedType, msgType)
	}
	fr := &fieldReader{r: bytes.NewReader(payload)}
	if err := m.decode(fr); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TypeName(msgType), err)
	}
	return m, nil
}

func (m *Probe) encode(b *bytes.Buffer) error {
	if err := putString(b, m.SessionID, "session id"); err != nil {
		return err
	}
	if err := putString(b, m.Version, "version"); err != nil {
		return err
	}
	if err := putString(b, m.ClientName, "client name"); err != nil {
		return err
	}
	if err := putStringList(b, m.Capabilities, "capabilities"); err != nil {
		return err
	}
	putUint32(b, m.KeepaliveSeconds)
	return nil
}

func (m *Probe) decode(r *fieldReader) error {
	var err error
	if m.SessionID, err = r.string("session id"); err != nil {
		return err
	}
	if m.Version, err = r.string("version"); err != nil {
		return err
	}
	if m.ClientName, err = r.string("client name"); err != nil {
		return err
	}
	if m.Capabilities, err = r.stringList("capabilities"); err != nil {
		return err
	}
	if m.KeepaliveSeconds, err = r.uint32("keepalive"); err != nil {
		return err
	}
	return nil
}

func (m *Established) encode(b *bytes.Buffer) error {
	if err := putString(b, m.SessionID, "session id"); err != nil {
		return err
	}
	if err := putString(b, m.Version, "version"); err != nil {
		return err
	}
	if err := putStringList(b, m.Capabilities, "capabilities"); err != nil {
		return err
	}
	putInt64(b, m.ServerTime)
	return nil
}

func (m *Established) decode(r *fieldReader) error {
	var err error
	if m.SessionID, err = r.string("session id"); err != nil {
		return err
	}
	if m.Version, err = r.string("version"); err != nil {
		return err
	}
	if m.Capabilities, err = r.stringList("capabilities"); err != nil {
		return err
	}
	if m.ServerTime, err = r.int64("server time"); err != nil {
		return err
	}
	return nil
}

func (m *Meta) encode(b *bytes.Buffer) error {
	if err := putString(b, m.SessionID, "session id"); err != nil {
		return err
	}
	f := &m.File
	if err := putString(b, f.Name, "name"); err != nil {
		return err
	}
	putUint64(b, f.Size)
	putBool(b, f.IsDir)
	putUint32(b, f.Mode)
	putInt64(b, f.ModTime)
	if err := putString(b, f.ChecksumAlg, "checksum alg"); err != nil {
		return err
	}
	if err := putBytes(b, f.Checksum, "checksum"); err != nil {
		return err
	}
	return putAttrs(b, f.Attrs)
}

func (m *Meta) decode(r *fieldReader) error {
	var err error
	if m.SessionID, err = r.string("session id"); err != nil {
		return err
	}
	f := &m.File
	if f.Name, err = r.string("name"); err != nil {
		return err
	}
	if f.Size, err = r.uint64("size"); err != nil {
		return err
	}
	if f.IsDir, err = r.bool("is dir"); err != nil {
		return err
	}
	if f.Mode, err = r.uint32("mode"); err != nil {
		return err
	}
	if f.ModTime, err = r.int64("mtime"); err != nil {
		return err
	}
	if f.ChecksumAlg, err = r.string("checksum alg"); err != nil {
		return err
	}
	if f.Checksum, err = r.bytes("checksum"); err != nil {
		return err
	}
	if f.Attrs, err = r.attrs(); err != nil {
		return err
	}
	return nil
}

func (m *PreflightOk) encode(b *bytes.Buffer) error {
	if err := putString(b, m.SessionID, "session id"); err != nil {
		return err
	}
	putBool(b, m.DestinationExists)
	putUint64(b, m.AvailableSpace)
	return nil
}

func (m *PreflightOk) decode(r *fieldReader) error {
	var err error
	if m.SessionID, err = r.string("session id"); err != nil {
		return err
	}
	if m.DestinationExists, err = r.bool("destination exists"); err != nil {
		return err
	}
	if m.AvailableSpace, err = r.uint64("available space"); err != nil {
		return err
	}
	return nil
}

func (m *PreflightFail) encode(b *bytes.Buffer) error {
	if err := putString(b, m.SessionID, "session id"); err != nil {
		return err
	}
	putUint32(b, m.Code)
	return putString(b, m.Reason, "reason")
}

func (m *PreflightFail) decode(r *fieldReader) error {
	var err error
	if m.SessionID, err = r.string("session id"); err != nil {
		return err
	}
	if m.Code, err = r.uint32("code"); err != nil {
		return err
	}
	if m.Reason, err = r.string("reason"); err != nil {
		return err
	}
	return nil
}

func (m *TransferStart) encode(b *bytes.Buffer) error {
	if err := putString(b, m.SessionID, "session id"); err != nil {
		return err
	}
	putUint64(b, m.FileSize)
	return nil
}

func (m *TransferStart) decode(r *fieldReader) error {
	var err error
	if m.SessionID, err = r.string("session id"); err != nil {
		return err
	}
	if m.FileSize, err = r.uint64("file size"); err != nil {
		return err
	}
	return nil
}

func (m *TransferResult) encode(b *bytes.Buffer) error {
	if err := putString(b, m.SessionID, "session id"); err != nil {
		return err
	}
	putBool(b, m.Ok)
	putUint32(b, m.Code)
	if err := putString(b, m.Reason, "reason"); err != nil {
		return err
	}
	if err := putBytes(b, m.Checksum, "checksum"); err != nil {
		return err
	}
	putUint64(b, m.ReceivedBytes)
	return nil
}

func (m *TransferResult) decode(r *fieldReader) error {
	var err error
	if m.SessionID, err = r.string("session id"); err != nil {
		return err
	}
	if m.Ok, err = r.bool("ok"); err != nil {
		return err
	}
	if m.Code, err = r.uint32("code"); err != nil {
		return err
	}
	if m.Reason, err = r.string("reason"); err != nil {
		return err
	}
	if m.Checksum, err = r.bytes("checksum"); err != nil {
		return err
	}
	if m.ReceivedBytes, err = r.uint64("received bytes"); err != nil {
		return err
	}
	return nil
}

// Strings, byte blobs and maps are length-prefixed with a big-endian uint16;
// string lists carry a uint8 count.

func putString(b *bytes.Buffer, s string, field string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%s too long: %d bytes", field, len(s))
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	b.Write(lenBuf[:])
	b.WriteString(s)
	return nil
}

func putBytes(b *bytes.Buffer, data []byte, field string) error {
	if len(data) > math.MaxUint16 {
		return fmt.Errorf("%s too long: %d bytes", field, len(data))
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(data)))
	b.Write(lenBuf[:])
	b.Write(data)
	return nil
}

func putStringList(b *bytes.Buffer, list []string, field string) error {
	if len(list) > math.MaxUint8 {
		return fmt.Errorf("%s too long: %d items", field, len(list))
	}
	b.WriteByte(byte(len(list)))
	for _, s := range list {
		if err := putString(b, s, field); err != nil {
			return err
		}
	}
	return nil
}

func putAttrs(b *bytes.Buffer, attrs map[string]string) error {
	if len(attrs) > math.MaxUint16 {
		return fmt.Errorf("attrs too long: %d entries", len(attrs))
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(attrs)))
	b.Write(lenBuf[:])
	// Deterministic order so identical messages encode identically.
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := putString(b, k, "attr key"); err != nil {
			return err
		}
		if err := putString(b, attrs[k], "attr value"); err != nil {
			return err
		}
	}
	return nil
}

func putUint32(b *bytes.Buffer, v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	b.Write(buf[:])
}

func putUint64(b *bytes.Buffer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b.Write(buf[:])
}

func putInt64(b *bytes.Buffer, v int64) {
	putUint64(b, uint64(v))
}

func putBool(b *bytes.Buffer, v bool) {
	if v {
		b.WriteByte(1)
	} else {
		b.WriteByte(0)
	}
}

// fieldReader decodes fields from a payload buffer with per-field errors.
type fieldReader struct {
	r *bytes.Reader
}

func (fr *fieldReader) take(n int, field string) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(fr.r, buf); err != nil {
		return nil, fmt.Errorf("short payload reading %s", field)
	}
	return buf, nil
}

func (fr *fieldReader) string(field string) (string, error) {
	data, err := fr.bytes(field)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (fr *fieldReader) bytes(field string) ([]byte, error) {
	lenBuf, err := fr.take(2, field)
	if err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint16(lenBuf))
	if n == 0 {
		return nil, nil
	}
	return fr.take(n, field)
}

func (fr *fieldReader) stringList(field string) ([]string, error) {
	countBuf, err := fr.take(1, field)
	if err != nil {
		return nil, err
	}
	count := int(countBuf[0])
	if count == 0 {
		return nil, nil
	}
	list := make([]string, 0, count)
	for i := 0; i < count; i++ {
		s, err := fr.string(field)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

func (fr *fieldReader) attrs() (map[string]string, error) {
	countBuf, err := fr.take(2, "attrs")
	if err != nil {
		return nil, err
	}
	count := int(binary.BigEndian.Uint16(countBuf))
	if count == 0 {
		return nil, nil
	}
	attrs := make(map[string]string, count)
	for i := 0; i < count; i++ {
		k, err := fr.string("attr key")
		if err != nil {
			return nil, err
		}
		v, err := fr.string("attr value")
		if err != nil {
			return nil, err
		}
		attrs[k] = v
	}
	return attrs, nil
}

func (fr *fieldReader) uint32(field string) (uint32, error) {
	buf, err := fr.take(4, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (fr *fieldReader) uint64(field string) (uint64, error) {
	buf, err := fr.take(8, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

func (fr *fieldReader) int64(field string) (int64, error) {
	v, err := fr.uint64(field)
	return int64(v), err
}

func (fr *fieldReader) bool(field string) (bool, error) {
	buf, err := fr.take(1, field)
	if err != nil {
		return false, err
	}
	return buf[0] != 0, nil
}
