// Package queue implements the bounded, single-producer/single-consumer
// chunk queue that decouples a transfer's disk-side stage from its
// network-side stage. It is the Go rendering of the mutex+condition-
// variable producer/consumer buffer in the original C server
// (thread_shared_data / ReadFromFile / SendOverANetwork): a fixed-size
// ring of chunk slots, one "not empty" and one "not full" wait
// condition, and a one-shot producer-closed flag.
//
// Unlike the C original, either side of a Go pipeline can bail out
// early on its own error without the other side ever noticing, so the
// queue also carries an Abort escape hatch: a side that gives up can
// call Abort, which immediately unblocks whatever the other side is
// waiting on instead of leaving it to wait on a condition that will
// never again become true. In internal/pipeline the consuming stage
// calls Abort; a producing stage that gives up calls CloseProducer.
package queue

import (
	"sync"

	"github.com/lmezzz/Multi-client-File-sharing-service/internal/wire"
)

// Chunk is a bounded unit of transfer: at most wire.ChunkSize bytes of
// payload and a count of valid bytes. A Chunk with N == 0 signals
// end-of-stream.
type Chunk struct {
	Data [wire.ChunkSize]byte
	N    int
}

// Queue is a fixed-capacity FIFO of Chunks with blocking Enqueue and
// Dequeue, an end-of-stream flag set by CloseProducer, and an abort
// flag set by Abort that unblocks both sides unconditionally.
type Queue struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond

	slots []Chunk
	head  int
	tail  int
	count int

	closed  bool // no more producers
	aborted bool // a consumer or producer gave up; drop the rest on the floor
}

// New builds a queue with the given capacity. Capacity must be ≥ 1.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{slots: make([]Chunk, capacity)}
	q.notEmpty.L = &q.mu
	q.notFull.L = &q.mu
	return q
}

// Enqueue blocks while the queue is full, then copies chunk into the
// next slot, advances the tail, and wakes one waiting consumer. It
// returns ok == false without enqueuing anything if Abort has been
// called — the producer must stop calling Enqueue once it sees this.
// Must not be called after CloseProducer.
func (q *Queue) Enqueue(chunk Chunk) (ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count == len(q.slots) && !q.aborted {
		q.notFull.Wait()
	}
	if q.aborted {
		return false
	}
	q.slots[q.tail] = chunk
	q.tail = (q.tail + 1) % len(q.slots)
	q.count++
	q.notEmpty.Signal()
	return true
}

// Dequeue blocks while the queue is empty, the producer has not
// closed, and nobody has called Abort. It returns ok == false once the
// queue is drained and the producer has closed (end-of-stream), or as
// soon as Abort is observed, whichever comes first.
func (q *Queue) Dequeue() (chunk Chunk, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count == 0 && !q.closed && !q.aborted {
		q.notEmpty.Wait()
	}
	if q.count == 0 || q.aborted {
		return Chunk{}, false
	}
	chunk = q.slots[q.head]
	q.head = (q.head + 1) % len(q.slots)
	q.count--
	q.notFull.Signal()
	return chunk, true
}

// CloseProducer sets the no-more-producers flag and wakes any consumer
// blocked on an empty queue so it can observe end-of-stream.
func (q *Queue) CloseProducer() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

// Abort unblocks every blocked or future Enqueue and Dequeue call on
// q, without regard for whether the queue is empty or full. The other
// side of a pipeline calls this when it gives up early (a network
// error mid-transfer, a disk error mid-transfer) so its counterpart
// isn't left waiting on a condition that will never again become
// true. Safe to call more than once, and safe to call after
// CloseProducer.
func (q *Queue) Abort() {
	q.mu.Lock()
	q.aborted = true
	q.mu.Unlock()
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}
