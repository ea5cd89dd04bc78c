package queue

import (
	"sync"
	"testing"
	"time"
)

func TestEnqueueDequeueFIFO(t *testing.T) {
	q := New(4)

	// Ten chunks through a four-slot queue: the producer runs on its own
	// goroutine because Enqueue blocks while the queue is full.
	go func() {
		for i := 0; i < 10; i++ {
			q.Enqueue(Chunk{N: i})
		}
		q.CloseProducer()
	}()

	for i := 0; i < 10; i++ {
		c, ok := q.Dequeue()
		if !ok {
			t.Fatalf("expected chunk %d, got end-of-stream", i)
		}
		if c.N != i {
			t.Fatalf("expected FIFO order: wanted %d, got %d", i, c.N)
		}
	}

	if _, ok := q.Dequeue(); ok {
		t.Fatalf("expected end-of-stream after draining")
	}
}

func TestDequeueBlocksUntilProducerCloses(t *testing.T) {
	q := New(2)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue()
		done <- ok
	}()

	select {
	case <-done:
		t.Fatalf("Dequeue returned before the queue had data or was closed")
	case <-time.After(50 * time.Millisecond):
	}

	q.CloseProducer()

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected end-of-stream, got a chunk")
		}
	case <-time.After(time.Second):
		t.Fatalf("Dequeue did not wake after CloseProducer")
	}
}

func TestEnqueueBlocksWhileFull(t *testing.T) {
	q := New(1)
	q.Enqueue(Chunk{N: 1})

	enqueued := make(chan struct{}, 1)
	go func() {
		q.Enqueue(Chunk{N: 2})
		enqueued <- struct{}{}
	}()

	select {
	case <-enqueued:
		t.Fatalf("Enqueue returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	c, ok := q.Dequeue()
	if !ok || c.N != 1 {
		t.Fatalf("expected first chunk, got ok=%v n=%d", ok, c.N)
	}

	select {
	case <-enqueued:
	case <-time.After(time.Second):
		t.Fatalf("Enqueue did not unblock after Dequeue freed a slot")
	}
}

func TestCapacityOneDegenerateCase(t *testing.T) {
	// Capacity 1 still preserves order and end-of-stream semantics.
	q := New(1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			q.Enqueue(Chunk{N: i})
		}
		q.CloseProducer()
	}()

	var got []int
	for {
		c, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, c.N)
	}
	wg.Wait()

	if len(got) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("expected FIFO order at index %d: wanted %d, got %d", i, i, v)
		}
	}
}

func TestAbortUnblocksPendingEnqueue(t *testing.T) {
	q := New(1)
	if ok := q.Enqueue(Chunk{N: 1}); !ok {
		t.Fatalf("expected first Enqueue to succeed")
	}

	blocked := make(chan bool, 1)
	go func() {
		blocked <- q.Enqueue(Chunk{N: 2})
	}()

	select {
	case <-blocked:
		t.Fatalf("Enqueue returned before the queue was aborted or drained")
	case <-time.After(50 * time.Millisecond):
	}

	q.Abort()

	select {
	case ok := <-blocked:
		if ok {
			t.Fatalf("expected Abort to make the blocked Enqueue fail, got ok=true")
		}
	case <-time.After(time.Second):
		t.Fatalf("Enqueue did not unblock after Abort")
	}

	if ok := q.Enqueue(Chunk{N: 3}); ok {
		t.Fatalf("expected Enqueue to keep failing after Abort")
	}
}

func TestAbortUnblocksPendingDequeue(t *testing.T) {
	q := New(2)

	blocked := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue()
		blocked <- ok
	}()

	select {
	case <-blocked:
		t.Fatalf("Dequeue returned before the queue had data, was closed, or was aborted")
	case <-time.After(50 * time.Millisecond):
	}

	q.Abort()

	select {
	case ok := <-blocked:
		if ok {
			t.Fatalf("expected Abort to make the blocked Dequeue report end-of-stream, got ok=true")
		}
	case <-time.After(time.Second):
		t.Fatalf("Dequeue did not unblock after Abort")
	}
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	q := New(0)
	if len(q.slots) != 1 {
		t.Fatalf("expected capacity to fall back to 1, got %d", len(q.slots))
	}
}
