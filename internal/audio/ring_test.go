package audio

import (
	"testing"
	"time"
)

func constWindow(n int, v float32) []float32 {
	w := make([]float32, n)
	for i := range w {
		w[i] = v
	}
	return w
}

func TestRingEvictsOldestFirst(t *testing.T) {
	r := NewRing(SampleRate) // 1 second capacity

	r.Push(constWindow(8000, 0.1))
	r.Push(constWindow(8000, 0.2))
	r.Push(constWindow(8000, 0.3)) // exceeds capacity by 8000 samples

	got := r.ReadLast(time.Second)
	if len(got) != SampleRate {
		t.Fatalf("expected exactly %d samples after overflow, got %d", SampleRate, len(got))
	}
	for i, s := range got[:8000] {
		if s != 0.2 {
			t.Fatalf("sample %d: expected 0.2 from second window, got %f", i, s)
		}
	}
	for i, s := range got[8000:] {
		if s != 0.3 {
			t.Fatalf("sample %d: expected 0.3 from newest window, got %f", 8000+i, s)
		}
	}
}

func TestRingEvictionTrimsPartialChunk(t *testing.T) {
	r := NewRing(SampleRate)

	r.Push(constWindow(8000, 0.1))
	r.Push(constWindow(8000, 0.2))
	r.Push(constWindow(4000, 0.3)) // forces a 4000-sample trim of the oldest chunk

	if r.Len() != SampleRate {
		t.Fatalf("expected buffered length %d, got %d", SampleRate, r.Len())
	}

	got := r.ReadLast(time.Second)
	if len(got) != SampleRate {
		t.Fatalf("expected %d samples, got %d", SampleRate, len(got))
	}
	if got[0] != 0.1 || got[3999] != 0.1 {
		t.Fatalf("expected trimmed head of first window (0.1), got %f / %f", got[0], got[3999])
	}
	if got[4000] != 0.2 || got[11999] != 0.2 {
		t.Fatalf("expected second window (0.2) in the middle, got %f / %f", got[4000], got[11999])
	}
	if got[12000] != 0.3 || got[15999] != 0.3 {
		t.Fatalf("expected newest window (0.3) at the tail, got %f / %f", got[12000], got[15999])
	}
}

func TestRingReadLastEmpty(t *testing.T) {
	r := NewRing(SampleRate * 30)

	got := r.ReadLast(2 * time.Second)
	if len(got) != 0 {
		t.Fatalf("expected empty read from empty ring, got %d samples", len(got))
	}
}

func TestRingReadLastShortHistory(t *testing.T) {
	r := NewRing(SampleRate * 30)
	r.Push(constWindow(1000, 0.5))

	got := r.ReadLast(time.Second)
	if len(got) != 1000 {
		t.Fatalf("expected all 1000 buffered samples, got %d", len(got))
	}
}

func TestRingReadLastReturnsNewestSuffix(t *testing.T) {
	r := NewRing(SampleRate * 30)
	r.Push(constWindow(8000, 0.1))
	r.Push(constWindow(8000, 0.9))

	got := r.ReadLast(250 * time.Millisecond) // 4000 samples
	if len(got) != 4000 {
		t.Fatalf("expected 4000 samples, got %d", len(got))
	}
	for i, s := range got {
		if s != 0.9 {
			t.Fatalf("sample %d: expected newest value 0.9, got %f", i, s)
		}
	}
}

func TestRingReadLastDoesNotAliasBuffer(t *testing.T) {
	r := NewRing(SampleRate)
	r.Push(constWindow(100, 0.5))

	got := r.ReadLast(time.Second)
	got[0] = -1

	again := r.ReadLast(time.Second)
	if again[0] != 0.5 {
		t.Fatalf("mutating a read window leaked into the ring: got %f", again[0])
	}
}

func TestRingClear(t *testing.T) {
	r := NewRing(SampleRate)
	r.Push(constWindow(8000, 0.1))

	r.Clear()

	if r.Len() != 0 {
		t.Fatalf("expected empty ring after Clear, got %d samples", r.Len())
	}
	if got := r.ReadLast(time.Second); len(got) != 0 {
		t.Fatalf("expected empty read after Clear, got %d samples", len(got))
	}
}

func TestRingConcurrentPushAndRead(t *testing.T) {
	r := NewRing(SampleRate)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			r.Push(constWindow(512, 0.25))
		}
	}()

	for {
		select {
		case <-done:
			if got := r.ReadLast(time.Second); len(got) > SampleRate {
				t.Fatalf("read exceeded capacity: %d samples", len(got))
			}
			return
		default:
			got := r.ReadLast(time.Second)
			if len(got) > SampleRate {
				t.Fatalf("read exceeded capacity: %d samples", len(got))
			}
			for _, s := range got {
				if s != 0.25 {
					t.Fatalf("torn read: expected 0.25, got %f", s)
				}
			}
		}
	}
}
