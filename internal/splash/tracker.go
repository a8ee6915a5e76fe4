package splash

import (
	"strings"
	"sync"
	"time"
)

// Tracker keeps one Sequence per browsing session.
type Tracker struct {
	mu       sync.Mutex
	duration time.Duration
	seqs     map[string]*Sequence
}

// NewTracker returns a tracker whose sequences last d.
func NewTracker(d time.Duration) *Tracker {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Tracker{duration: d, seqs: map[string]*Sequence{}}
}

// Duration is the configured splash length.
func (t *Tracker) Duration() time.Duration { return t.duration }

// Sequence returns the started sequence for sessionID, creating it on the
// session's first view. An empty id yields an unretained sequence.
func (t *Tracker) Sequence(sessionID string) *Sequence {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		seq := New(t.duration)
		seq.Start()
		return seq
	}
	t.mu.Lock()
	seq, ok := t.seqs[sessionID]
	if !ok {
		seq = New(t.duration)
		t.seqs[sessionID] = seq
	}
	t.mu.Unlock()
	seq.Start()
	return seq
}

// Forget stops and discards the session's sequence. It matches the cart
// registry's eviction hook.
func (t *Tracker) Forget(sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	t.mu.Lock()
	seq, ok := t.seqs[sessionID]
	delete(t.seqs, sessionID)
	t.mu.Unlock()
	if ok {
		seq.Stop()
	}
}

// StopAll stops every pending sequence, used on shutdown.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	seqs := t.seqs
	t.seqs = map[string]*Sequence{}
	t.mu.Unlock()
	for _, seq := range seqs {
		seq.Stop()
	}
}

// Len reports the number of tracked sessions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seqs)
}
