package transfer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ncp-tools/ncp/internal/bufpool"
	"github.com/ncp-tools/ncp/internal/checksum"
	"github.com/ncp-tools/ncp/internal/diskspace"
	"github.com/ncp-tools/ncp/internal/progress"
	"github.com/ncp-tools/ncp/pkg/manifest"
	"github.com/ncp-tools/ncp/pkg/protocol"
)

// chunkPool supplies the streaming buffers for both session sides.
var chunkPool = bufpool.New(bufpool.ChunkSize)

// progressLogInterval is how many streamed bytes pass between progress log
// lines.
const progressLogInterval = 32 * 1024 * 1024

// SenderOptions configures one sender session.
type SenderOptions struct {
	ClientName      string
	ChecksumEnabled bool
	Logger          *slog.Logger
}

// RunSender drives one full session over an established stream: handshake,
// then every manifest entry in order. Entries the receiver rejects at
// preflight are skipped and reported in a SkipError at the end; protocol
// violations and failed transfer results abort immediately.
func RunSender(rw io.ReadWriter, m manifest.Manifest, opts SenderOptions) error {
	logger := opts.Logger
	sess := NewSession()

	if err := handshake(rw, sess, opts.ClientName); err != nil {
		return err
	}
	logger.Info("session established",
		"session_id", sess.ID,
		"entries", len(m.Entries),
		"total", diskspace.FormatBytes(m.TotalBytes))

	meter := progress.NewMeter()
	meter.Start(int64(m.TotalBytes))

	var skipped []SkippedEntry
	for _, entry := range m.Entries {
		skip, err := sendEntry(rw, sess, entry, opts, meter)
		if err != nil {
			return fmt.Errorf("entry %s: %w", entry.RelPath, err)
		}
		if skip != nil {
			logger.Warn("entry rejected by receiver",
				"path", entry.RelPath, "reason", skip.Reason)
			skipped = append(skipped, *skip)
		}
	}

	stats := meter.Snapshot()
	logger.Info("session complete",
		"sent", diskspace.FormatBytes(uint64(stats.BytesDone)),
		"rate", fmt.Sprintf("%s/s", diskspace.FormatBytes(uint64(stats.RateBps))),
		"skipped", len(skipped))

	if len(skipped) > 0 {
		return &SkipError{Skipped: skipped}
	}
	return nil
}

func handshake(rw io.ReadWriter, sess Session, clientName string) error {
	probe := &protocol.Probe{
		SessionID:        sess.ID,
		Version:          sess.Version,
		ClientName:       clientName,
		Capabilities:     sess.Capabilities,
		KeepaliveSeconds: uint32(sess.Keepalive / time.Second),
	}
	if err := protocol.WriteMessage(rw, probe); err != nil {
		return fmt.Errorf("send probe: %w", err)
	}

	msg, err := protocol.ReadMessage(rw)
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("await established: %w", protocol.ErrTruncated)
		}
		return fmt.Errorf("await established: %w", err)
	}
	est, ok := msg.(*protocol.Established)
	if !ok {
		return fmt.Errorf("%w: got %s awaiting Established",
			protocol.ErrUnexpectedType, protocol.TypeName(msg.MsgType()))
	}
	if est.SessionID != sess.ID {
		return fmt.Errorf("%w: sent %s, got %s",
			protocol.ErrSessionMismatch, sess.ID, est.SessionID)
	}
	return nil
}

// sendEntry runs the meta/preflight/data/result exchange for one entry.
// A rejection is returned as a non-nil SkippedEntry with a nil error.
func sendEntry(rw io.ReadWriter, sess Session, entry manifest.Entry, opts SenderOptions, meter *progress.Meter) (*SkippedEntry, error) {
	file := protocol.FileMeta{
		Name:        entry.RelPath,
		Size:        entry.Size,
		IsDir:       entry.IsDir,
		Mode:        entry.Mode,
		ModTime:     entry.ModTime,
		ChecksumAlg: checksum.AlgNone,
	}
	if !entry.IsDir && opts.ChecksumEnabled {
		sum, err := checksum.SumFile(entry.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("compute checksum: %w", err)
		}
		file.ChecksumAlg = checksum.AlgXXH64
		file.Checksum = sum
	}

	if err := protocol.WriteMessage(rw, &protocol.Meta{SessionID: sess.ID, File: file}); err != nil {
		return nil, fmt.Errorf("send meta: %w", err)
	}

	msg, err := readReply(rw, "preflight reply")
	if err != nil {
		return nil, err
	}
	switch reply := msg.(type) {
	case *protocol.PreflightFail:
		return &SkippedEntry{Path: entry.RelPath, Code: reply.Code, Reason: reply.Reason}, nil
	case *protocol.PreflightOk:
		if reply.SessionID != sess.ID {
			return nil, fmt.Errorf("%w in preflight reply", protocol.ErrSessionMismatch)
		}
	default:
		return nil, fmt.Errorf("%w: got %s awaiting preflight reply",
			protocol.ErrUnexpectedType, protocol.TypeName(msg.MsgType()))
	}

	// Directories carry no bytes; PreflightOk means the receiver created or
	// confirmed the directory.
	if entry.IsDir {
		return nil, nil
	}

	if err := streamFile(rw, sess, entry, meter, opts.Logger); err != nil {
		return nil, err
	}

	msg, err = readReply(rw, "transfer result")
	if err != nil {
		return nil, err
	}
	result, ok := msg.(*protocol.TransferResult)
	if !ok {
		return nil, fmt.Errorf("%w: got %s awaiting TransferResult",
			protocol.ErrUnexpectedType, protocol.TypeName(msg.MsgType()))
	}
	if result.SessionID != sess.ID {
		return nil, fmt.Errorf("%w in transfer result", protocol.ErrSessionMismatch)
	}
	if !result.Ok {
		if result.Code == protocol.CodeChecksum {
			return nil, ErrChecksumMismatch
		}
		return nil, &RemoteFailure{Code: result.Code, Reason: result.Reason}
	}
	if result.ReceivedBytes != entry.Size {
		opts.Logger.Warn("received byte count disagrees with sent size",
			"path", entry.RelPath, "sent", entry.Size, "received", result.ReceivedBytes)
	}
	return nil, nil
}

func streamFile(rw io.ReadWriter, sess Session, entry manifest.Entry, meter *progress.Meter, logger *slog.Logger) error {
	start := &protocol.TransferStart{SessionID: sess.ID, FileSize: entry.Size}
	if err := protocol.WriteMessage(rw, start); err != nil {
		return fmt.Errorf("send transfer start: %w", err)
	}

	f, err := os.Open(entry.AbsPath)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()

	buf := chunkPool.Get()
	defer chunkPool.Put(buf)

	var sent, nextLog uint64 = 0, progressLogInterval
	for sent < entry.Size {
		n := uint64(len(buf))
		if remaining := entry.Size - sent; remaining < n {
			n = remaining
		}
		// The size was fixed at enumeration time; a file that shrank since
		// then fails here rather than silently truncating the stream.
		if _, err := io.ReadFull(f, buf[:n]); err != nil {
			return fmt.Errorf("read source file: %w", err)
		}
		if err := protocol.WriteRaw(rw, buf[:n]); err != nil {
			return err
		}
		sent += n
		meter.Add(int(n))
		if sent >= nextLog {
			nextLog += progressLogInterval
			stats := meter.Snapshot()
			logger.Debug("streaming",
				"path", entry.RelPath,
				"sent", diskspace.FormatBytes(sent),
				"size", diskspace.FormatBytes(entry.Size),
				"rate", fmt.Sprintf("%s/s", diskspace.FormatBytes(uint64(stats.RateBps))))
		}
	}
	return nil
}

func readReply(rw io.ReadWriter, phase string) (protocol.Message, error) {
	msg, err := protocol.ReadMessage(rw)
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("await %s: %w", phase, protocol.ErrTruncated)
		}
		return nil, fmt.Errorf("await %s: %w", phase, err)
	}
	return msg, nil
}
