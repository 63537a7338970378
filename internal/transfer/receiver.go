package transfer

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/ncp-tools/ncp/internal/admission"
	"github.com/ncp-tools/ncp/internal/checksum"
	"github.com/ncp-tools/ncp/internal/diskspace"
	"github.com/ncp-tools/ncp/pkg/protocol"
)

// ReceiverOptions configures one receiver session.
type ReceiverOptions struct {
	ChecksumEnabled bool
	Logger          *slog.Logger
}

// RunReceiver serves one full session over an established stream: it answers
// the sender's Probe, then handles Meta offers until the sender closes the
// connection. A clean close at an envelope boundary ends the session
// successfully; anything else is an error.
func RunReceiver(rw io.ReadWriter, ctrl *admission.Controller, opts ReceiverOptions) error {
	logger := opts.Logger

	sess, err := acceptHandshake(rw, logger)
	if err != nil {
		return err
	}

	for {
		msg, err := protocol.ReadMessage(rw)
		if err == io.EOF {
			logger.Info("session closed by sender", "session_id", sess.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read offer: %w", err)
		}
		meta, ok := msg.(*protocol.Meta)
		if !ok {
			return fmt.Errorf("%w: got %s awaiting Meta",
				protocol.ErrUnexpectedType, protocol.TypeName(msg.MsgType()))
		}
		if meta.SessionID != sess.ID {
			return fmt.Errorf("%w in Meta", protocol.ErrSessionMismatch)
		}
		if err := receiveEntry(rw, sess, meta.File, ctrl, opts); err != nil {
			return fmt.Errorf("entry %s: %w", meta.File.Name, err)
		}
	}
}

// acceptHandshake reads the sender's Probe and answers with Established,
// adopting the sender's session id.
func acceptHandshake(rw io.ReadWriter, logger *slog.Logger) (Session, error) {
	msg, err := protocol.ReadMessage(rw)
	if err != nil {
		if err == io.EOF {
			return Session{}, fmt.Errorf("await probe: %w", protocol.ErrTruncated)
		}
		return Session{}, fmt.Errorf("await probe: %w", err)
	}
	probe, ok := msg.(*protocol.Probe)
	if !ok {
		return Session{}, fmt.Errorf("%w: got %s awaiting Probe",
			protocol.ErrUnexpectedType, protocol.TypeName(msg.MsgType()))
	}

	sess := Session{
		ID:           probe.SessionID,
		Version:      protocol.ProtocolVersion,
		Capabilities: []string{checksum.AlgXXH64},
		Keepalive:    time.Duration(probe.KeepaliveSeconds) * time.Second,
	}
	est := &protocol.Established{
		SessionID:    sess.ID,
		Version:      sess.Version,
		Capabilities: sess.Capabilities,
		ServerTime:   time.Now().Unix(),
	}
	if err := protocol.WriteMessage(rw, est); err != nil {
		return Session{}, fmt.Errorf("send established: %w", err)
	}

	logger.Info("session established",
		"session_id", sess.ID,
		"client", probe.ClientName,
		"client_version", probe.Version)
	return sess, nil
}

// receiveEntry answers one Meta offer: preflight verdict, then for accepted
// files the data stream and its result.
func receiveEntry(rw io.ReadWriter, sess Session, file protocol.FileMeta, ctrl *admission.Controller, opts ReceiverOptions) error {
	decision, err := ctrl.Evaluate(file)
	if err != nil {
		return fmt.Errorf("admission: %w", err)
	}
	if !decision.Accepted {
		opts.Logger.Warn("entry rejected",
			"path", file.Name, "code", protocol.CodeName(decision.Code), "reason", decision.Reason)
		fail := &protocol.PreflightFail{
			SessionID: sess.ID,
			Code:      decision.Code,
			Reason:    decision.Reason,
		}
		if err := protocol.WriteMessage(rw, fail); err != nil {
			return fmt.Errorf("send preflight fail: %w", err)
		}
		return nil
	}

	ok := &protocol.PreflightOk{
		SessionID:         sess.ID,
		DestinationExists: decision.DestinationExists,
		AvailableSpace:    decision.AvailableSpace,
	}
	if err := protocol.WriteMessage(rw, ok); err != nil {
		return fmt.Errorf("send preflight ok: %w", err)
	}

	// Directories are fully handled at admission; there is no data phase.
	if file.IsDir {
		opts.Logger.Debug("directory created", "path", decision.FinalPath)
		return nil
	}
	return receiveFile(rw, sess, file, decision.FinalPath, opts)
}

func receiveFile(rw io.ReadWriter, sess Session, file protocol.FileMeta, finalPath string, opts ReceiverOptions) error {
	msg, err := protocol.ReadMessage(rw)
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("await transfer start: %w", protocol.ErrTruncated)
		}
		return fmt.Errorf("await transfer start: %w", err)
	}
	start, ok := msg.(*protocol.TransferStart)
	if !ok {
		return fmt.Errorf("%w: got %s awaiting TransferStart",
			protocol.ErrUnexpectedType, protocol.TypeName(msg.MsgType()))
	}
	if start.SessionID != sess.ID {
		return fmt.Errorf("%w in TransferStart", protocol.ErrSessionMismatch)
	}
	if start.FileSize != file.Size {
		return fmt.Errorf("%w: TransferStart declares %d bytes, Meta declared %d",
			protocol.ErrUnexpectedType, start.FileSize, file.Size)
	}

	pending, err := newPendingWrite(finalPath, fs.FileMode(file.Mode))
	if err != nil {
		return err
	}

	verify := opts.ChecksumEnabled && file.ChecksumAlg == checksum.AlgXXH64 && len(file.Checksum) > 0
	engine := checksum.New()

	buf := chunkPool.Get()
	defer chunkPool.Put(buf)

	var received, nextLog uint64 = 0, progressLogInterval
	for received < file.Size {
		n := uint64(len(buf))
		if remaining := file.Size - received; remaining < n {
			n = remaining
		}
		if err := protocol.ReadRaw(rw, buf[:n]); err != nil {
			pending.Abort()
			return err
		}
		if err := pending.Write(buf[:n]); err != nil {
			pending.Abort()
			return err
		}
		if verify {
			engine.Update(buf[:n])
		}
		received += n
		if received >= nextLog {
			nextLog += progressLogInterval
			opts.Logger.Debug("receiving",
				"path", file.Name,
				"received", diskspace.FormatBytes(received),
				"size", diskspace.FormatBytes(file.Size))
		}
	}

	var digest []byte
	if verify {
		digest = engine.Finalize()
		if !bytes.Equal(digest, file.Checksum) {
			pending.Abort()
			opts.Logger.Error("checksum mismatch, discarding",
				"path", file.Name, "expected", fmt.Sprintf("%x", file.Checksum),
				"actual", fmt.Sprintf("%x", digest))
			fail := &protocol.TransferResult{
				SessionID: sess.ID,
				Code:      protocol.CodeChecksum,
				Reason:    "checksum mismatch",
			}
			if err := protocol.WriteMessage(rw, fail); err != nil {
				return fmt.Errorf("send transfer result: %w", err)
			}
			return ErrChecksumMismatch
		}
	}

	if err := pending.Commit(); err != nil {
		return err
	}

	result := &protocol.TransferResult{
		SessionID:     sess.ID,
		Ok:            true,
		Checksum:      digest,
		ReceivedBytes: received,
	}
	if err := protocol.WriteMessage(rw, result); err != nil {
		return fmt.Errorf("send transfer result: %w", err)
	}

	opts.Logger.Info("entry received",
		"path", finalPath, "size", diskspace.FormatBytes(received), "verified", verify)
	return nil
}
