package terminal

import (
	"context"
	"testing"
	"time"

	"github.com/corvidterm/term/backend/virtual"
	"github.com/corvidterm/term/capabilities"
	"github.com/corvidterm/term/event"
	"github.com/corvidterm/term/scope"
)

func newTestSession(t *testing.T) (*Session, *virtual.Backend) {
	t.Helper()
	vb := virtual.New(event.Size{Cols: 80, Rows: 24}, capabilities.Capabilities{
		AnsiEnabled:                true,
		SupportsCursorPositionSet:  true,
		SupportsCursorPositionGet:  false,
	})
	s := New(vb)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, vb
}

func TestSessionWriteAndLine(t *testing.T) {
	s, vb := newTestSession(t)
	if err := s.Write("hello"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.WriteLine("world"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if got, want := vb.Output(), "helloworld\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSessionAlternateScreenScope(t *testing.T) {
	s, vb := newTestSession(t)
	h, err := s.UseAlternateScreen()
	if err != nil {
		t.Fatalf("UseAlternateScreen: %v", err)
	}
	if vb.Output() != "\x1b[?1049h" {
		t.Fatalf("unexpected enter sequence: %q", vb.Output())
	}
	h.Dispose()
	if vb.Output() != "\x1b[?1049h\x1b[?1049l" {
		t.Fatalf("unexpected restore sequence: %q", vb.Output())
	}
}

func TestSessionCursorPositionGatedByCapability(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, _, err := s.QueryCursorPosition(ctx); err == nil {
		t.Fatal("expected ErrNotSupported when capability is false")
	}
}

func TestSessionClipboardRoundTrip(t *testing.T) {
	s, _ := newTestSession(t)
	if !s.SetClipboardText("clip") {
		t.Fatal("SetClipboardText failed")
	}
	text, ok := s.GetClipboardText()
	if !ok || text != "clip" {
		t.Fatalf("got %q,%v want clip,true", text, ok)
	}
}

func TestSessionEventsDelivery(t *testing.T) {
	s, vb := newTestSession(t)
	sub := s.Subscribe()
	vb.PushEvent(event.NewText("x"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if ev.Text != "x" {
		t.Fatalf("got %q, want x", ev.Text)
	}
}

func TestSessionMouseInputScope(t *testing.T) {
	s, _ := newTestSession(t)
	h, err := s.EnableMouseInput(scope.MouseRankClicks)
	if err != nil {
		t.Fatalf("EnableMouseInput: %v", err)
	}
	h.Dispose()
}
