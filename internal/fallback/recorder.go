package fallback

import "sync"

// Recorder accumulates attempts across chains, so a caller can report
// every provider decision of a run in one place. A nil *Recorder discards.
type Recorder struct {
	mu       sync.Mutex
	attempts []Attempt
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Record appends one attempt.
func (r *Recorder) Record(a Attempt) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.attempts = append(r.attempts, a)
	r.mu.Unlock()
}

// Drain returns the recorded attempts and resets the recorder.
func (r *Recorder) Drain() []Attempt {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.attempts
	r.attempts = nil
	return out
}
