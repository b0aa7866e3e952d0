// Package shmring is a single-producer, single-consumer byte ring shared
// between a feeder (a UART callback, a test, a script) and one reader.
package shmring

import (
	"io"
	"sync"
	"sync/atomic"
)

// Ring is a power-of-two byte ring. Put/Write belong to the producer,
// Get/Available to the consumer.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable  chan struct{} // empty->non-empty edge
	done      chan struct{}
	closeOnce sync.Once
}

// New allocates a ring of size bytes (power of two, >= 2).
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Available returns the number of unread bytes.
func (r *Ring) Available() int { return int(r.wr.Load() - r.rd.Load()) }

// Space returns the free capacity.
func (r *Ring) Space() int { return len(r.buf) - r.Available() }

// Put appends b; false when full.
func (r *Ring) Put(b byte) bool {
	wr := r.wr.Load()
	rd := r.rd.Load()
	if int(wr-rd) >= len(r.buf) {
		return false
	}
	r.buf[wr&r.mask] = b
	r.wr.Store(wr + 1) // release
	if wr == rd {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return true
}

// Write appends as much of p as fits. A full ring yields the count written
// and io.ErrShortWrite.
func (r *Ring) Write(p []byte) (int, error) {
	for i, b := range p {
		if !r.Put(b) {
			return i, io.ErrShortWrite
		}
	}
	return len(p), nil
}

// Get removes one byte; false when empty.
func (r *Ring) Get() (byte, bool) {
	rd := r.rd.Load()
	if rd == r.wr.Load() { // acquire
		return 0, false
	}
	b := r.buf[rd&r.mask]
	r.rd.Store(rd + 1)
	return b, true
}

// Readable fires on the empty to non-empty transition. Re-check Available
// after waking; the signal is edge-triggered and coalesced.
func (r *Ring) Readable() <-chan struct{} { return r.readable }

// Close marks the producer finished. Buffered bytes stay readable.
func (r *Ring) Close() { r.closeOnce.Do(func() { close(r.done) }) }

// Done is closed by Close.
func (r *Ring) Done() <-chan struct{} { return r.done }
