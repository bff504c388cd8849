package audio

import (
	"sync"
	"time"
)

// Ring is a bounded, thread-safe store of the most recent audio
// samples at the canonical rate. Exactly one capture source writes and
// exactly one transcription worker reads.
//
// Samples are held as immutable chunks so the mutex only ever guards
// deque bookkeeping: Push copies its input before locking, ReadLast
// snapshots chunk references under the lock and concatenates outside
// it. A writer running on a real-time audio callback is therefore
// never stalled behind a long concurrent read.
type Ring struct {
	mu       sync.Mutex
	chunks   [][]float32
	buffered int
	capacity int
}

// NewRing creates a ring retaining at most capacity samples.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = SampleRate
	}
	return &Ring{capacity: capacity}
}

// Push appends a window of samples, evicting the oldest samples once
// the ring exceeds capacity. The input is copied up front; the caller
// may reuse its slice immediately.
func (r *Ring) Push(window []float32) {
	if len(window) == 0 {
		return
	}
	owned := make([]float32, len(window))
	copy(owned, window)

	r.mu.Lock()
	r.chunks = append(r.chunks, owned)
	r.buffered += len(owned)
	for r.buffered > r.capacity {
		over := r.buffered - r.capacity
		head := r.chunks[0]
		if len(head) <= over {
			r.chunks[0] = nil // release the chunk, not just the slot
			r.chunks = r.chunks[1:]
			r.buffered -= len(head)
		} else {
			r.chunks[0] = head[over:]
			r.buffered -= over
		}
	}
	r.mu.Unlock()
}

// ReadLast returns a copy of up to d seconds of the most recent
// samples, fewer when less history is buffered and nil when the ring
// is empty. It never blocks and never errors.
func (r *Ring) ReadLast(d time.Duration) []float32 {
	want := samplesFor(d)
	if want <= 0 {
		return nil
	}

	r.mu.Lock()
	var (
		refs    [][]float32 // newest first
		covered int
	)
	for i := len(r.chunks) - 1; i >= 0 && covered < want; i-- {
		refs = append(refs, r.chunks[i])
		covered += len(r.chunks[i])
	}
	r.mu.Unlock()

	if covered == 0 {
		return nil
	}
	skip := 0
	if covered > want {
		skip = covered - want
		covered = want
	}
	out := make([]float32, 0, covered)
	for i := len(refs) - 1; i >= 0; i-- {
		c := refs[i]
		if skip >= len(c) {
			skip -= len(c)
			continue
		}
		out = append(out, c[skip:]...)
		skip = 0
	}
	return out
}

// Clear drops every buffered sample so no audio outlives the session.
func (r *Ring) Clear() {
	r.mu.Lock()
	r.chunks = nil
	r.buffered = 0
	r.mu.Unlock()
}

// Len reports the number of buffered samples.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffered
}

// Capacity reports the maximum number of retained samples.
func (r *Ring) Capacity() int {
	return r.capacity
}

func samplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d * SampleRate / time.Second)
}
