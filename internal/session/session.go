// Package session implements the per-connection state machine: parse
// the request header, resolve the coordination object, acquire the
// appropriate lock, run the transfer pipeline, release the lock, and
// release the registry reference.
package session

import (
	"encoding/binary"
	"io"
	"net"
	"os"

	"github.com/lmezzz/Multi-client-File-sharing-service/internal/pipeline"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/queue"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/registry"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/stats"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/xerrors"
)

// Command is one of the two verbs the wire header may carry.
type Command string

const (
	Download Command = "download"
	Upload   Command = "upload"
)

const (
	minCommandLen  = 1
	maxCommandLen  = 31
	minFilenameLen = 1
	maxFilenameLen = 255
)

// State names the session handler's state machine positions described
// on Handle. Nothing in the package stores or branches on a State value.
type State int

const (
	AwaitingHeader State = iota
	Dispatching
	Transferring
	Done
)

// Request is the parsed wire header: a command and a remote filename.
type Request struct {
	Command  Command
	Filename string
}

// ReadRequest parses the fixed-order header from conn: CommandLen,
// Command bytes (NUL-terminated), FilenameLen, Filename bytes
// (NUL-terminated). Any bound violation or unrecognized command fails
// terminally for the session; the caller must close conn itself.
func ReadRequest(conn io.Reader) (Request, error) {
	cmd, err := readLengthPrefixedString(conn, minCommandLen, maxCommandLen)
	if err != nil {
		return Request{}, err
	}
	name, err := readLengthPrefixedString(conn, minFilenameLen, maxFilenameLen)
	if err != nil {
		return Request{}, err
	}

	switch Command(cmd) {
	case Download, Upload:
		return Request{Command: Command(cmd), Filename: name}, nil
	default:
		return Request{}, xerrors.Newf(xerrors.ProtocolCommand, "unrecognized command %q", cmd)
	}
}

// readLengthPrefixedString reads a u32 big-endian length, bounds-checks
// it against [min, max], then reads that many bytes and strips the
// trailing NUL the wire format always includes in the length.
func readLengthPrefixedString(r io.Reader, min, max int) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", xerrors.Wrap(xerrors.Network, err, "read header length")
	}
	n := int(binary.BigEndian.Uint32(lenBuf[:]))
	if n < min || n > max {
		return "", xerrors.Newf(xerrors.ProtocolFraming, "header field length %d out of range [%d,%d]", n, min, max)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", xerrors.Wrap(xerrors.Network, err, "read header field")
	}
	if buf[n-1] != 0 {
		return "", xerrors.Newf(xerrors.ProtocolFraming, "header field missing trailing NUL")
	}
	return string(buf[:n-1]), nil
}

// QueueCapacity is the default bounded-queue capacity for a transfer;
// overridable per Handler.
const QueueCapacity = 8

// Handler runs one connection end to end against a shared registry.
type Handler struct {
	Registry      *registry.Registry
	QueueCapacity int
	Counters      *stats.Counters
}

// Handle drives conn through AwaitingHeader → Dispatching → Transferring
// → Done, closing conn unconditionally on return. It returns the
// session's terminal error, or nil: every failure is terminal for this
// session, and there is no error-reply frame on the wire, so the
// caller's only responsibility is to log it.
func (h *Handler) Handle(conn net.Conn) error {
	defer conn.Close()
	if h.Counters != nil {
		h.Counters.SessionStarted()
		defer h.Counters.SessionEnded()
	}

	req, err := ReadRequest(conn)
	if err != nil {
		return err
	}

	handle, err := h.Registry.LookupOrCreate(req.Filename)
	if err != nil {
		return err
	}
	defer h.Registry.Release(handle)

	qcap := h.QueueCapacity
	if qcap <= 0 {
		qcap = QueueCapacity
	}
	q := queue.New(qcap)

	switch req.Command {
	case Download:
		return h.download(conn, req.Filename, handle, q)
	case Upload:
		return h.upload(conn, req.Filename, handle, q)
	default:
		// Unreachable: ReadRequest already rejected any other command.
		return xerrors.Newf(xerrors.ProtocolCommand, "unrecognized command %q", req.Command)
	}
}

func (h *Handler) download(conn net.Conn, filename string, handle registry.Handle, q *queue.Queue) error {
	if h.Counters != nil {
		h.Counters.LockWaitRead()
	}
	handle.AcquireRead()
	defer handle.ReleaseRead()

	file, err := os.Open(filename)
	if err != nil {
		return xerrors.Wrap(xerrors.Io, err, "open file for download")
	}
	defer file.Close()

	if err := pipeline.Send(file, conn, q, h.Counters); err != nil {
		return err
	}
	if h.Counters != nil {
		h.Counters.DownloadCompleted()
	}
	return nil
}

func (h *Handler) upload(conn net.Conn, filename string, handle registry.Handle, q *queue.Queue) error {
	if h.Counters != nil {
		h.Counters.LockWaitWrite()
	}
	handle.AcquireWrite()
	defer handle.ReleaseWrite()

	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return xerrors.Wrap(xerrors.Io, err, "open file for upload")
	}
	defer file.Close()

	if err := pipeline.Receive(conn, file, q, h.Counters); err != nil {
		return err
	}
	if h.Counters != nil {
		h.Counters.UploadCompleted()
	}
	return nil
}
