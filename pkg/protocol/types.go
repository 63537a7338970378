package protocol

// Message type tags for protocol envelopes.
const (
	TypeProbe          = byte(0x01)
	TypeEstablished    = byte(0x02)
	TypeMeta           = byte(0x03)
	TypePreflightOk    = byte(0x04)
	TypePreflightFail  = byte(0x05)
	TypeTransferStart  = byte(0x06)
	TypeTransferResult = byte(0x07)
)

// Wire error codes carried by PreflightFail and TransferResult.
const (
	CodeUnknown        = uint32(0)
	CodeChecksum       = uint32(1)
	CodeNoSpace        = uint32(2)
	CodePermission     = uint32(3)
	CodeConflict       = uint32(4)
	CodeUnexpectedEOF  = uint32(5)
	CodeTimeout        = uint32(6)
	CodeUnsupportedAlg = uint32(7)
)

// TypeName returns a human-readable name for a message type tag.
func TypeName(msgType byte) string {
	switch msgType {
	case TypeProbe:
		return "Probe"
	case TypeEstablished:
		return "Established"
	case TypeMeta:
		return "Meta"
	case TypePreflightOk:
		return "PreflightOk"
	case TypePreflightFail:
		return "PreflightFail"
	case TypeTransferStart:
		return "TransferStart"
	case TypeTransferResult:
		return "TransferResult"
	default:
		return "Unknown"
	}
}

// CodeName returns a human-readable name for a wire error code.
func CodeName(code uint32) string {
	switch code {
	case CodeChecksum:
		return "checksum mismatch"
	case CodeNoSpace:
		return "no space"
	case CodePermission:
		return "permission denied"
	case CodeConflict:
		return "destination conflict"
	case CodeUnexpectedEOF:
		return "unexpected eof"
	case CodeTimeout:
		return "timeout"
	case CodeUnsupportedAlg:
		return "unsupported checksum algorithm"
	default:
		return "unknown error"
	}
}
