// Package broadcast fans a single stream of input events out to any number
// of subscribers. A lazily-created default subscription is bounded and
// drops its oldest queued event when full (so a slow consumer never stalls
// event production); every other subscription is an unbounded FIFO queue.
// The pattern mirrors the mutex-guarded channel lifecycle the teacher's
// Elm-Architecture event loop uses for its msgCh/cmdCh/viewCh, generalized
// from fixed Go channels to a pull-based, context-cancellable queue so
// Subscription.Recv can honor caller cancellation.
package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/corvidterm/term"
	"github.com/corvidterm/term/event"
)

// DefaultBoundedCapacity is the queue depth of the lazily-created default
// subscription returned by Broadcaster.Default.
const DefaultBoundedCapacity = 1024

// Subscription is a single consumer's view of a Broadcaster's event stream.
// It is safe for one goroutine to call Recv while another calls Close.
type Subscription struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []event.Event
	capacity int // 0 means unbounded
	closed   bool
	closeErr error

	b  *Broadcaster
	id uuid.UUID
}

func (s *Subscription) push(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.capacity > 0 && len(s.queue) >= s.capacity {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
}

// Recv blocks until an event is available, the subscription is closed
// (via Complete or Close), or ctx is cancelled. Events are delivered in
// the order Publish was called for this subscriber, with no reordering.
func (s *Subscription) Recv(ctx context.Context) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, term.New("broadcast.Recv", term.KindCancelled, err)
	}

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-stopWatch:
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			return ev, nil
		}
		if s.closed {
			if s.closeErr != nil {
				return event.Event{}, term.New("broadcast.Recv", term.KindIOFailure, s.closeErr)
			}
			return event.Event{}, term.ErrEndOfInput
		}
		if err := ctx.Err(); err != nil {
			return event.Event{}, term.New("broadcast.Recv", term.KindCancelled, err)
		}
		s.cond.Wait()
	}
}

// Close unsubscribes, discarding any unread queued events. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.b.unsubscribe(s.id)
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

func (s *Subscription) markClosed(err error) {
	s.mu.Lock()
	s.closed = true
	s.closeErr = err
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Broadcaster fans out published events to every live subscription.
type Broadcaster struct {
	mu         sync.Mutex
	subs       map[uuid.UUID]*Subscription
	defaultSub *Subscription
	closed     bool
	closeErr   error
}

// New creates an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{subs: make(map[uuid.UUID]*Subscription)}
}

// Default returns the broadcaster's bounded, drop-oldest subscription,
// creating it on first use.
func (b *Broadcaster) Default() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.defaultSub == nil {
		b.defaultSub = b.newSubscriptionLocked(DefaultBoundedCapacity)
	}
	return b.defaultSub
}

// Subscribe creates a new unbounded FIFO subscription.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newSubscriptionLocked(0)
}

// newSubscriptionLocked must be called with b.mu held. If the broadcaster
// has already Complete'd, the returned subscription is handed back
// pre-closed rather than live, so Recv reports term.ErrEndOfInput (or
// b.closeErr) immediately instead of blocking on a cond.Wait that nothing
// will ever signal again.
func (b *Broadcaster) newSubscriptionLocked(capacity int) *Subscription {
	s := &Subscription{capacity: capacity, b: b, id: uuid.New()}
	s.cond = sync.NewCond(&s.mu)
	if b.closed {
		s.closed = true
		s.closeErr = b.closeErr
		return s
	}
	b.subs[s.id] = s
	return s
}

func (b *Broadcaster) unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	s, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		if b.defaultSub == s {
			b.defaultSub = nil
		}
	}
	b.mu.Unlock()
	if ok {
		s.markClosed(nil)
	}
}

// Publish delivers ev to every live subscription. A no-op after Complete.
func (b *Broadcaster) Publish(ev event.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := b.snapshotLocked()
	b.mu.Unlock()

	for _, s := range subs {
		s.push(ev)
	}
}

// Complete permanently shuts the broadcaster down: once a subscription's
// already-queued events have been received, every further Recv call on it
// fails (and every Recv on a subscription created later fails at once),
// err (nil for a clean end-of-input) reported as the cause. Safe to call more than once; only the first call matters.
func (b *Broadcaster) Complete(err error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.closeErr = err
	subs := b.snapshotLocked()
	b.mu.Unlock()

	for _, s := range subs {
		s.markClosed(err)
	}
}

func (b *Broadcaster) snapshotLocked() []*Subscription {
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	return subs
}
