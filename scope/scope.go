// Package scope implements ref-counted terminal-state scopes: alt screen,
// raw mode, cursor visibility, bracketed paste, mouse mode, and title all
// follow the same pattern — the first acquire applies the state, nested
// acquires just bump a refcount, and only the last matching release
// actually restores what was there before. Grounded on the teacher's
// suspend/resume bookkeeping in program.go (wasInRawMode/wasInAltScreen)
// generalized from a single ad hoc pair of booleans into a reusable,
// composable primitive.
package scope

import "sync"

// Handle is returned by Registry.Acquire. Calling Dispose exactly once
// releases this acquisition; the underlying restore only runs when the
// last outstanding handle for a given key is disposed. Disposing more than
// once is a no-op.
type Handle struct {
	mu       sync.Mutex
	disposed bool
	release  func()
}

// Dispose releases this handle's hold on the scope. Idempotent.
func (h *Handle) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	h.mu.Unlock()
	h.release()
}

type entry struct {
	refcount int
	restore  func()
}

// Registry tracks ref-counted scopes keyed by name (e.g. "altscreen",
// "rawmode", "cursor-hidden", "bracketed-paste", "title").
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Acquire enters the named scope. apply runs only on the first acquire for
// key; it must return the restore function to run when the last handle for
// key is disposed. Concurrent acquires of the same key serialize through
// the Registry's lock so apply/restore never race each other.
func (r *Registry) Acquire(key string, apply func() func()) *Handle {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		restore := apply()
		e = &entry{refcount: 0, restore: restore}
		r.entries[key] = e
	}
	e.refcount++
	r.mu.Unlock()

	h := &Handle{}
	h.release = func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		e, ok := r.entries[key]
		if !ok {
			return
		}
		e.refcount--
		if e.refcount > 0 {
			return
		}
		delete(r.entries, key)
		if e.restore != nil {
			e.restore()
		}
	}
	return h
}

// Active reports whether key currently has at least one outstanding handle.
func (r *Registry) Active(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

// MouseRank orders mouse-tracking modes so enabling a higher rank while a
// lower one is active upgrades in place, and releasing the higher rank
// drops back to the next-highest still-held rank rather than disabling
// mouse tracking outright. Off < Clicks < Drag < Move.
type MouseRank int

const (
	MouseRankOff MouseRank = iota
	MouseRankClicks
	MouseRankDrag
	MouseRankMove
)

// MouseStack tracks nested mouse-mode acquisitions by rank so the terminal
// is always driven at the highest rank currently held, and dropped to the
// next highest (not necessarily Off) when that acquisition releases.
type MouseStack struct {
	mu      sync.Mutex
	counts  [4]int
	current MouseRank
	apply   func(MouseRank)
}

// NewMouseStack creates a MouseStack that calls apply whenever the
// effective highest-held rank changes (including to MouseRankOff when
// nothing is held).
func NewMouseStack(apply func(MouseRank)) *MouseStack {
	return &MouseStack{apply: apply}
}

// Enable acquires rank r, applying it if it becomes the new effective
// highest rank, and returns a Handle to later release it.
func (s *MouseStack) Enable(r MouseRank) *Handle {
	s.mu.Lock()
	s.counts[r]++
	s.applyEffectiveLocked()
	s.mu.Unlock()

	h := &Handle{}
	h.release = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.counts[r] > 0 {
			s.counts[r]--
		}
		s.applyEffectiveLocked()
	}
	return h
}

func (s *MouseStack) applyEffectiveLocked() {
	effective := MouseRankOff
	for r := MouseRankMove; r >= MouseRankClicks; r-- {
		if s.counts[r] > 0 {
			effective = r
			break
		}
	}
	if effective == s.current {
		return
	}
	s.current = effective
	s.apply(effective)
}
