// Package virtual provides an in-memory, deterministic backend.Backend for
// tests and headless use: output is captured instead of written to a real
// terminal, and events are injected with PushEvent rather than decoded
// from input bytes. Grounded on the teacher's WithTerminal() test seam in
// tea/internal/application/program/program.go, which lets tests substitute
// a fake terminal.Terminal rather than touching the real TTY.
package virtual

import (
	"bytes"
	"context"
	"sync"

	"github.com/corvidterm/term/backend"
	"github.com/corvidterm/term/broadcast"
	"github.com/corvidterm/term/capabilities"
	"github.com/corvidterm/term/clipboard"
	"github.com/corvidterm/term/event"
	"github.com/corvidterm/term/output"
	"github.com/corvidterm/term/scope"
)

// Backend is an in-memory backend for deterministic tests.
type Backend struct {
	mu   sync.Mutex
	out  bytes.Buffer
	err  bytes.Buffer
	size event.Size

	outW *output.Writer
	errW *output.Writer

	caps   capabilities.Capabilities
	scopes *scope.Registry
	mouse  *scope.MouseStack

	broadcaster *broadcast.Broadcaster
	clip        *memoryClipboard

	cancel context.CancelFunc
}

// New builds a virtual backend with the given initial size and
// capabilities (typically capabilities.Capabilities{AnsiEnabled: true, ...}).
func New(size event.Size, caps capabilities.Capabilities) *Backend {
	b := &Backend{size: size, caps: caps}
	b.outW = output.New(&b.out)
	b.errW = output.New(&b.err)
	b.scopes = scope.NewRegistry()
	b.broadcaster = broadcast.New()
	b.mouse = scope.NewMouseStack(func(scope.MouseRank) {})
	b.clip = &memoryClipboard{}
	return b
}

func (b *Backend) Capabilities() capabilities.Capabilities { return b.caps }

func (b *Backend) Size() (event.Size, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size, nil
}

// SetSize updates the virtual terminal's dimensions, optionally publishing
// a Resize event so subscribers observe the change.
func (b *Backend) SetSize(size event.Size, raise bool) {
	b.mu.Lock()
	b.size = size
	b.mu.Unlock()
	if raise {
		b.broadcaster.Publish(event.NewResize(size.Cols, size.Rows))
	}
}

// PushEvent injects ev as though it had been decoded from real input.
func (b *Backend) PushEvent(ev event.Event) {
	b.broadcaster.Publish(ev)
}

// Output returns everything written to the primary stream so far.
func (b *Backend) Output() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String()
}

// ErrorOutput returns everything written to the error stream so far.
func (b *Backend) ErrorOutput() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err.String()
}

func (b *Backend) Write(s string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.outW.WriteString(s)
	return err
}

func (b *Backend) WriteError(s string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.errW.WriteString(s)
	return err
}

func (b *Backend) WriteAtomic(fn func(w interface{ WriteString(string) (int, error) })) error {
	return b.outW.WriteAtomic(func(w output.AnsiWriter) { fn(w) })
}

func (b *Backend) Subscribe() *broadcast.Subscription            { return b.broadcaster.Subscribe() }
func (b *Backend) DefaultSubscription() *broadcast.Subscription { return b.broadcaster.Default() }

// EnterRawMode is inert (nothing to restore) but still ref-counted so
// nested acquire/release behavior is testable.
func (b *Backend) EnterRawMode(backend.RawModeKind) (*scope.Handle, error) {
	return b.scopes.Acquire("rawmode", func() func() { return func() {} }), nil
}

// EnterAlternateScreen emits the same ANSI sequence a real backend would,
// so tests of code built on capability-gated ANSI output still see it.
func (b *Backend) EnterAlternateScreen() (*scope.Handle, error) {
	h := b.scopes.Acquire("altscreen", func() func() {
		_ = b.Write("\x1b[?1049h")
		return func() { _ = b.Write("\x1b[?1049l") }
	})
	return h, nil
}

func (b *Backend) HideCursor() (*scope.Handle, error) {
	h := b.scopes.Acquire("cursor-hidden", func() func() {
		_ = b.Write("\x1b[?25l")
		return func() { _ = b.Write("\x1b[?25h") }
	})
	return h, nil
}

func (b *Backend) EnableMouse(rank scope.MouseRank) (*scope.Handle, error) {
	return b.mouse.Enable(rank), nil
}

func (b *Backend) EnableBracketedPaste() (*scope.Handle, error) {
	h := b.scopes.Acquire("bracketed-paste", func() func() { return func() {} })
	return h, nil
}

func (b *Backend) UseTitle(title string) (*scope.Handle, error) {
	h := b.scopes.Acquire("title", func() func() { return func() {} })
	return h, nil
}

func (b *Backend) SetCursorPosition(row, col int) error { return nil }

func (b *Backend) QueryCursorPosition(ctx context.Context) (int, int, error) {
	return 0, 0, nil
}

func (b *Backend) Clipboard() clipboard.Provider { return b.clip }

func (b *Backend) Start(ctx context.Context) error {
	_, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	return nil
}

func (b *Backend) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.broadcaster.Complete(nil)
	return nil
}

type memoryClipboard struct {
	mu   sync.Mutex
	text string
	set  bool
}

func (m *memoryClipboard) TryGetText() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.set
}

func (m *memoryClipboard) TrySetText(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.set = true
	return true
}

func (m *memoryClipboard) IsAvailable() bool { return true }
func (m *memoryClipboard) Name() string      { return "virtual" }

var _ backend.Backend = (*Backend)(nil)
