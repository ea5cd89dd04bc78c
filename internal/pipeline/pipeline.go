// Package pipeline binds a file handle, a socket, and a bounded chunk
// queue (internal/queue) into a two-stage producer/consumer streaming
// pipeline: a disk-side stage and a network-side stage running
// concurrently, so a slow client never stalls disk throughput and vice
// versa.
//
// The two stages run under golang.org/x/sync/errgroup rather than a
// bare sync.WaitGroup, so the pipeline reports whichever side fails
// first instead of silently dropping one of two concurrent errors.
// Whichever stage is consuming from the queue calls q.Abort on its way
// out, win or lose, so a producer blocked on a full queue is always
// released instead of only sometimes (when the producer itself is the
// side that errors, CloseProducer already does the job; Abort covers
// the other direction, when the consumer gives up first).
package pipeline

import (
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/lmezzz/Multi-client-File-sharing-service/internal/queue"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/stats"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/wire"
	"github.com/lmezzz/Multi-client-File-sharing-service/internal/xerrors"
)

// Send runs the download configuration: a reader stage that streams
// file bytes into q, and a sender stage that drains q onto conn,
// terminating with a zero-length frame. It returns the first error
// from either stage, or nil if both completed cleanly. counters may be
// nil. Bytes actually placed on the wire are recorded against
// counters.BytesDown as they go.
func Send(file io.Reader, conn io.Writer, q *queue.Queue, counters *stats.Counters) error {
	var g errgroup.Group

	g.Go(func() error { return readFromFile(file, q) })
	g.Go(func() error { return sendOverNetwork(conn, q, counters) })

	return g.Wait()
}

// Receive runs the upload configuration: a receiver stage that reads
// framed chunks off conn into q until the terminator frame, and a
// writer stage that drains q onto file. It returns the first error
// from either stage, or nil if both completed cleanly. counters may be
// nil. Bytes actually written to disk are recorded against
// counters.BytesUp as they go.
func Receive(conn io.Reader, file io.Writer, q *queue.Queue, counters *stats.Counters) error {
	var g errgroup.Group

	g.Go(func() error { return receiveFromNetwork(conn, q) })
	g.Go(func() error { return writeToFile(file, q, counters) })

	return g.Wait()
}

// readFromFile repeatedly reads up to wire.ChunkSize bytes from file,
// enqueuing each non-empty chunk, and closes the queue's producer side
// once a short read (including EOF) is observed. It also stops, with
// no error of its own, the moment Enqueue reports that the consumer
// side has aborted.
func readFromFile(file io.Reader, q *queue.Queue) error {
	defer q.CloseProducer()

	for {
		var chunk queue.Chunk
		n, err := file.Read(chunk.Data[:])
		if n > 0 {
			chunk.N = n
			if !q.Enqueue(chunk) {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return xerrors.Wrap(xerrors.Io, err, "read file for download")
		}
		if n < wire.ChunkSize {
			return nil
		}
	}
}

// sendOverNetwork repeatedly dequeues chunks and frames them onto conn,
// sending the zero-length terminator frame once the queue reports
// end-of-stream. It aborts the queue on its way out regardless of
// outcome, so a disk-side stage blocked on a full queue is released
// rather than left to wait on a network that already failed.
func sendOverNetwork(conn io.Writer, q *queue.Queue, counters *stats.Counters) error {
	defer q.Abort()

	for {
		chunk, ok := q.Dequeue()
		if !ok {
			return wire.SendChunk(conn, nil, 0)
		}
		if err := wire.SendChunk(conn, chunk.Data[:], chunk.N); err != nil {
			return err
		}
		if counters != nil {
			counters.AddBytesDown(chunk.N)
		}
	}
}

// receiveFromNetwork repeatedly receives framed chunks from conn,
// enqueuing each one, until a zero-length frame closes the queue's
// producer side and ends the stage. It also stops, with no error of
// its own, the moment Enqueue reports that the consumer side has
// aborted.
func receiveFromNetwork(conn io.Reader, q *queue.Queue) error {
	defer q.CloseProducer()

	for {
		var chunk queue.Chunk
		n, err := wire.ReceiveChunk(conn, chunk.Data[:])
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		chunk.N = n
		if !q.Enqueue(chunk) {
			return nil
		}
	}
}

// writeToFile repeatedly dequeues chunks and writes them to file,
// retrying short writes, until the queue reports end-of-stream. It
// aborts the queue on its way out regardless of outcome, so a
// network-side stage blocked on a full queue is released rather than
// left to wait on a disk that already failed.
func writeToFile(file io.Writer, q *queue.Queue, counters *stats.Counters) error {
	defer q.Abort()

	for {
		chunk, ok := q.Dequeue()
		if !ok {
			return nil
		}
		if err := writeFull(file, chunk.Data[:chunk.N]); err != nil {
			return xerrors.Wrap(xerrors.Io, err, "write file for upload")
		}
		if counters != nil {
			counters.AddBytesUp(chunk.N)
		}
	}
}

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
