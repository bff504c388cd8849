// Package transcript keeps a rolling transcript per captured stream.
// A worker re-transcribes the last few seconds of each stream on a
// fixed cadence and publishes the text into a slot; readers always see
// the latest complete transcription, never a partial one.
package transcript

import "sync"

// Label tags which side of the conversation a stream carries.
type Label string

const (
	Self  Label = "SELF"
	Other Label = "OTHER"
)

// Slot holds the most recent transcript for one stream. Publishing
// replaces the whole text; a failed or empty transcription never
// overwrites a previous good one.
type Slot struct {
	mu   sync.RWMutex
	text string
}

func (s *Slot) Publish(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

func (s *Slot) Snapshot() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

func (s *Slot) Clear() {
	s.mu.Lock()
	s.text = ""
	s.mu.Unlock()
}
