// Package terminal is the facade applications program against: capability
// gated writes, cursor and clipboard operations, and ref-counted scope
// factories (alternate screen, raw mode, mouse tracking, bracketed paste,
// title) layered over a backend.Backend. A process-wide singleton is
// available via Default, alongside instance-based New(backend) for tests
// and the virtual backend. Grounded on the teacher's terminal.Terminal
// facade (terminal/terminal.go) and Program's lifecycle management
// (tea/internal/application/program/program.go), generalized from a
// single synchronous Terminal to a facade whose side effects are
// independently scoped and restorable.
package terminal

import (
	"context"
	"sync"

	term "github.com/corvidterm/term"
	"github.com/corvidterm/term/backend"
	"github.com/corvidterm/term/broadcast"
	"github.com/corvidterm/term/capabilities"
	"github.com/corvidterm/term/event"
	"github.com/corvidterm/term/scope"
)

// Session is a terminal session backed by a concrete backend.Backend.
type Session struct {
	b backend.Backend

	mu      sync.Mutex
	started bool
}

// New wraps an existing backend.Backend in a Session. Most callers should
// use Default() instead; New is for tests that supply a
// backend/virtual.Backend directly.
func New(b backend.Backend) *Session {
	return &Session{b: b}
}

// Start launches the backend's input loop. Default calls this automatically;
// callers constructing a Session with New must call it themselves before
// Events()/Subscribe() will produce anything.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	return s.b.Start(ctx)
}

// Close stops the backend's input loop and releases OS resources.
// Outstanding scope handles are NOT released automatically; callers are
// responsible for disposing everything they acquired first.
func (s *Session) Close() error {
	return s.b.Close()
}

// Capabilities returns the detected capability snapshot.
func (s *Session) Capabilities() capabilities.Capabilities { return s.b.Capabilities() }

// Size returns the current terminal dimensions.
func (s *Session) Size() (event.Size, error) { return s.b.Size() }

// Write sends s to the primary output stream.
func (s *Session) Write(text string) error { return s.b.Write(text) }

// WriteLine writes text followed by a newline.
func (s *Session) WriteLine(text string) error { return s.b.Write(text + "\n") }

// WriteError sends s to the error stream.
func (s *Session) WriteError(text string) error { return s.b.WriteError(text) }

// WriteAtomic batches every write fn performs into a single underlying
// write, so no other goroutine's output can interleave with it.
func (s *Session) WriteAtomic(fn func(w interface{ WriteString(string) (int, error) })) error {
	return s.b.WriteAtomic(fn)
}

// Subscribe creates a new unbounded event subscription.
func (s *Session) Subscribe() *broadcast.Subscription { return s.b.Subscribe() }

// Events returns the lazily-created bounded, drop-oldest default
// subscription shared by callers that don't need their own queue.
func (s *Session) Events() *broadcast.Subscription { return s.b.DefaultSubscription() }

// SetCursorPosition moves the cursor to a 0-based (row, col), as a no-op
// when the backend does not support cursor positioning.
func (s *Session) SetCursorPosition(row, col int) error {
	if !s.Capabilities().SupportsCursorPositionSet {
		return nil
	}
	return s.b.SetCursorPosition(row, col)
}

// QueryCursorPosition asks the terminal for the live cursor position,
// returning ErrNotSupported if the backend cannot do this.
func (s *Session) QueryCursorPosition(ctx context.Context) (row, col int, err error) {
	if !s.Capabilities().SupportsCursorPositionGet {
		return 0, 0, term.ErrNotSupported
	}
	return s.b.QueryCursorPosition(ctx)
}

// GetClipboardText reads the system clipboard's text contents.
func (s *Session) GetClipboardText() (string, bool) {
	if cb := s.b.Clipboard(); cb != nil {
		return cb.TryGetText()
	}
	return "", false
}

// SetClipboardText writes text to the system clipboard.
func (s *Session) SetClipboardText(text string) bool {
	if cb := s.b.Clipboard(); cb != nil {
		return cb.TrySetText(text)
	}
	return false
}

// UseAlternateScreen switches to the alternate screen buffer until the
// returned handle is disposed.
func (s *Session) UseAlternateScreen() (*scope.Handle, error) {
	return s.b.EnterAlternateScreen()
}

// HideCursor hides the cursor until the returned handle is disposed.
func (s *Session) HideCursor() (*scope.Handle, error) {
	return s.b.HideCursor()
}

// UseRawMode puts the terminal into cbreak or raw input mode until the
// returned handle is disposed.
func (s *Session) UseRawMode(kind backend.RawModeKind) (*scope.Handle, error) {
	return s.b.EnterRawMode(kind)
}

// EnableMouseInput acquires mouse tracking at the given rank until the
// returned handle is disposed.
func (s *Session) EnableMouseInput(rank scope.MouseRank) (*scope.Handle, error) {
	return s.b.EnableMouse(rank)
}

// EnableBracketedPasteInput turns on bracketed-paste framing until the
// returned handle is disposed.
func (s *Session) EnableBracketedPasteInput() (*scope.Handle, error) {
	return s.b.EnableBracketedPaste()
}

// UseTitle sets the terminal title until the returned handle is disposed.
func (s *Session) UseTitle(title string) (*scope.Handle, error) {
	return s.b.UseTitle(title)
}

var (
	defaultOnce    sync.Once
	defaultSession *Session
	defaultErr     error
)

// Default returns the process-wide Session, auto-detecting the best
// backend for the current platform and starting its input loop on first
// use. The backend's Start error (if any) is captured on that first call
// and returned on every subsequent call too, since a failed input loop
// isn't something a later call can retry past.
func Default() (*Session, error) {
	defaultOnce.Do(func() {
		defaultSession = New(detectBackend())
		defaultErr = defaultSession.Start(context.Background())
	})
	return defaultSession, defaultErr
}
