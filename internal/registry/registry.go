// Package registry implements the named, writer-preference
// reader/writer lock keyed by filename, together with the
// reference-counted lifecycle of its per-file coordination objects.
// It is the Go rendering of the original C server's
// FileAccessControl / g_file_list_head / get_or_create_file_control
// machinery: a registry-level mutex guards the filename→object map,
// and each object's own mutex plus two condition variables
// ("readers may proceed", "writers may proceed") guard its own state.
//
// The lock order is strict: registry mutex, then (optionally) an
// object's own mutex, never the reverse. No code path acquires two
// object mutexes at once. This is what rules out deadlock.
package registry

import (
	"sync"

	"github.com/lmezzz/Multi-client-File-sharing-service/internal/xerrors"
)

// object is one File Coordination Object: the per-filename
// reader/writer state machine and its synchronization primitives.
type object struct {
	name string

	mu       sync.Mutex
	canRead  sync.Cond
	canWrite sync.Cond

	activeReaders  int
	activeWriter   bool
	waitingWriters int
	users          int
}

// Handle is the opaque reference a caller holds to one coordination
// object. It mediates every further registry or lock operation on that
// object, the way a borrow-checked reference would in a language with
// one; the zero Handle is not valid.
type Handle struct {
	obj *object
}

// Registry is the process-wide mapping from filename to coordination
// object, guarded by a single mutex. Construct one with New; the design
// tolerates multiple independent registries in one process, which is
// what lets tests build an isolated instance instead of relying on a
// package-level singleton.
type Registry struct {
	mu      sync.Mutex
	objects map[string]*object
}

// New returns an empty, ready-to-use registry.
func New() *Registry {
	return &Registry{objects: make(map[string]*object)}
}

const maxNameLen = 255

// LookupOrCreate finds the coordination object for name, incrementing
// its reference count, or creates and inserts a fresh one with
// users == 1. The caller must eventually call Release on the returned
// handle exactly once.
func (r *Registry) LookupOrCreate(name string) (Handle, error) {
	if name == "" {
		return Handle{}, xerrors.Newf(xerrors.InvalidName, "empty filename")
	}
	if len(name) > maxNameLen {
		return Handle{}, xerrors.Newf(xerrors.InvalidName, "filename %q exceeds %d bytes", name, maxNameLen)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if obj, found := r.objects[name]; found {
		obj.users++
		return Handle{obj: obj}, nil
	}

	obj := &object{name: name, users: 1}
	obj.canRead.L = &obj.mu
	obj.canWrite.L = &obj.mu
	r.objects[name] = obj
	return Handle{obj: obj}, nil
}

// Release decrements the handle's reference count and, if it reached
// zero, unlinks the object from the registry. The object's own
// primitives need no explicit destruction in Go; dropping the last
// reference is enough for the garbage collector to reclaim it, but the
// unlink itself still happens inside the registry mutex exactly as the
// design requires.
func (r *Registry) Release(h Handle) {
	if h.obj == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	h.obj.users--
	if h.obj.users == 0 {
		delete(r.objects, h.obj.name)
	}
}

// Len reports the number of distinct filenames currently tracked; used
// by tests asserting reference-count soundness.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

// AcquireRead blocks while a writer is active or a writer is waiting —
// writer preference — then records one more active reader.
func (h Handle) AcquireRead() {
	o := h.obj
	o.mu.Lock()
	for o.activeWriter || o.waitingWriters > 0 {
		o.canRead.Wait()
	}
	o.activeReaders++
	o.mu.Unlock()
}

// ReleaseRead records one fewer active reader and, if that was the
// last reader and a writer is waiting, wakes exactly one writer.
func (h Handle) ReleaseRead() {
	o := h.obj
	o.mu.Lock()
	o.activeReaders--
	if o.activeReaders == 0 && o.waitingWriters > 0 {
		o.canWrite.Signal()
	}
	o.mu.Unlock()
}

// AcquireWrite registers intent to write, blocks while any reader or
// writer is active, then becomes the active writer.
func (h Handle) AcquireWrite() {
	o := h.obj
	o.mu.Lock()
	o.waitingWriters++
	for o.activeReaders > 0 || o.activeWriter {
		o.canWrite.Wait()
	}
	o.waitingWriters--
	o.activeWriter = true
	o.mu.Unlock()
}

// ReleaseWrite clears the active-writer flag and then wakes the next
// waiting writer if there is one, otherwise broadcasts to every waiting
// reader — multiple readers may proceed concurrently once no writer is
// waiting.
func (h Handle) ReleaseWrite() {
	o := h.obj
	o.mu.Lock()
	o.activeWriter = false
	if o.waitingWriters > 0 {
		o.canWrite.Signal()
	} else {
		o.canRead.Broadcast()
	}
	o.mu.Unlock()
}
