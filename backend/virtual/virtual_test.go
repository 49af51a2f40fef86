package virtual

import (
	"context"
	"testing"
	"time"

	"github.com/corvidterm/term/capabilities"
	"github.com/corvidterm/term/event"
)

func TestAlternateScreenRefCounting(t *testing.T) {
	b := New(event.Size{Cols: 80, Rows: 24}, capabilities.Capabilities{AnsiEnabled: true})
	h1, _ := b.EnterAlternateScreen()
	h2, _ := b.EnterAlternateScreen()

	if got := b.Output(); got != "\x1b[?1049h" {
		t.Fatalf("expected single enter sequence, got %q", got)
	}
	h1.Dispose()
	if got := b.Output(); got != "\x1b[?1049h" {
		t.Fatalf("releasing one of two handles should not restore yet, got %q", got)
	}
	h2.Dispose()
	if got := b.Output(); got != "\x1b[?1049h\x1b[?1049l" {
		t.Fatalf("releasing last handle should restore, got %q", got)
	}
}

func TestPushEventDeliveredToSubscriber(t *testing.T) {
	b := New(event.Size{Cols: 80, Rows: 24}, capabilities.Capabilities{})
	sub := b.Subscribe()
	b.PushEvent(event.NewText("hi"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if ev.Text != "hi" {
		t.Fatalf("got %q, want hi", ev.Text)
	}
}

func TestSetSizeRaisesResize(t *testing.T) {
	b := New(event.Size{Cols: 80, Rows: 24}, capabilities.Capabilities{})
	sub := b.Subscribe()
	b.SetSize(event.Size{Cols: 100, Rows: 40}, true)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if ev.Kind != event.KindResize || ev.Size.Cols != 100 || ev.Size.Rows != 40 {
		t.Fatalf("unexpected resize event: %#v", ev)
	}
}

func TestClipboardRoundTrip(t *testing.T) {
	b := New(event.Size{}, capabilities.Capabilities{})
	if _, ok := b.Clipboard().TryGetText(); ok {
		t.Fatal("expected empty clipboard initially")
	}
	if !b.Clipboard().TrySetText("hello") {
		t.Fatal("TrySetText failed")
	}
	text, ok := b.Clipboard().TryGetText()
	if !ok || text != "hello" {
		t.Fatalf("got %q,%v want hello,true", text, ok)
	}
}
