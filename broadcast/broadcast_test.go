package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corvidterm/term/event"
)

func mustRecv(t *testing.T, s *Subscription) event.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := s.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	return ev
}

func TestSubscribeFIFOOrder(t *testing.T) {
	b := New()
	s := b.Subscribe()
	b.Publish(event.NewText("a"))
	b.Publish(event.NewText("b"))
	b.Publish(event.NewText("c"))

	if ev := mustRecv(t, s); ev.Text != "a" {
		t.Fatalf("got %q, want a", ev.Text)
	}
	if ev := mustRecv(t, s); ev.Text != "b" {
		t.Fatalf("got %q, want b", ev.Text)
	}
	if ev := mustRecv(t, s); ev.Text != "c" {
		t.Fatalf("got %q, want c", ev.Text)
	}
}

func TestDefaultSubscriptionDropsOldestWhenFull(t *testing.T) {
	b := New()
	s := b.Default()
	for i := 0; i < DefaultBoundedCapacity+10; i++ {
		b.Publish(event.NewText("x"))
	}
	s.mu.Lock()
	n := len(s.queue)
	s.mu.Unlock()
	if n != DefaultBoundedCapacity {
		t.Fatalf("queue len = %d, want %d", n, DefaultBoundedCapacity)
	}
}

func TestDefaultIsLazyAndStable(t *testing.T) {
	b := New()
	s1 := b.Default()
	s2 := b.Default()
	if s1 != s2 {
		t.Fatal("Default() should return the same subscription across calls")
	}
}

func TestMultipleSubscribersEachGetEvents(t *testing.T) {
	b := New()
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	b.Publish(event.NewText("hi"))
	if ev := mustRecv(t, s1); ev.Text != "hi" {
		t.Fatalf("s1 got %q", ev.Text)
	}
	if ev := mustRecv(t, s2); ev.Text != "hi" {
		t.Fatalf("s2 got %q", ev.Text)
	}
}

func TestCompleteEndsAllSubscriptions(t *testing.T) {
	b := New()
	s := b.Subscribe()
	b.Complete(nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := s.Recv(ctx)
	if err == nil {
		t.Fatal("expected an error after Complete")
	}
}

func TestCompleteWithErrorPropagates(t *testing.T) {
	b := New()
	s := b.Subscribe()
	cause := errors.New("boom")
	b.Complete(cause)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := s.Recv(ctx)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestRecvCancellation(t *testing.T) {
	b := New()
	s := b.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Recv(ctx)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestCloseStopsReceiving(t *testing.T) {
	b := New()
	s := b.Subscribe()
	s.Close()
	ctx, cancelFn := context.WithTimeout(context.Background(), time.Second)
	defer cancelFn()
	_, err := s.Recv(ctx)
	if err == nil {
		t.Fatal("expected error after Close")
	}
	// Publishing after close must not panic or block.
	b.Publish(event.NewText("x"))
}
