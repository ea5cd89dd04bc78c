// Package wire implements the chunk framing codec: a four-byte
// big-endian length prefix followed by that many payload bytes, with
// length zero as the end-of-stream sentinel.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/lmezzz/Multi-client-File-sharing-service/internal/xerrors"
)

// ChunkSize is the maximum number of payload bytes a single frame may
// carry. It doubles as a cheap sanity filter against corrupted framing.
const ChunkSize = 128

// SendChunk writes the four-byte length prefix for n followed by
// buffer[:n]. n == 0 is the legal end-of-stream signal. Short writes are
// retried until the whole frame is delivered or the channel fails.
func SendChunk(w io.Writer, buffer []byte, n int) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(n))
	if err := writeFull(w, lenBuf[:]); err != nil {
		return xerrors.Wrap(xerrors.Network, err, "send chunk length")
	}
	if n == 0 {
		return nil
	}
	if err := writeFull(w, buffer[:n]); err != nil {
		return xerrors.Wrap(xerrors.Network, err, "send chunk payload")
	}
	return nil
}

// ReceiveChunk reads one frame into buffer, which must have length at
// least ChunkSize. It returns the number of payload bytes read, or 0
// with a nil error on the end-of-stream frame.
func ReceiveChunk(r io.Reader, buffer []byte) (int, error) {
	var lenBuf [4]byte
	if err := readFull(r, lenBuf[:]); err != nil {
		return 0, xerrors.Wrap(xerrors.Network, err, "receive chunk length")
	}
	n := int(int32(binary.BigEndian.Uint32(lenBuf[:])))
	if n < 0 || n > ChunkSize {
		return 0, xerrors.Newf(xerrors.ProtocolFraming, "chunk length %d out of range [0,%d]", n, ChunkSize)
	}
	if n == 0 {
		return 0, nil
	}
	if len(buffer) < n {
		return 0, xerrors.Newf(xerrors.ResourceExhausted, "receive buffer too small: need %d have %d", n, len(buffer))
	}
	if err := readFull(r, buffer[:n]); err != nil {
		return 0, xerrors.Wrap(xerrors.Network, err, "receive chunk payload")
	}
	return n, nil
}

// writeFull retries partial writes until buf is fully delivered.
func writeFull(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// readFull retries partial reads until buf is fully populated. A peer
// close mid-frame surfaces as io.ErrUnexpectedEOF, which callers should
// treat as a Truncated / Network failure.
func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}
