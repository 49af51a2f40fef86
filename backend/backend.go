// Package backend defines the per-platform terminal driver contract that
// the terminal facade is built on: capability detection, sized/scoped
// state, output sinks, an input loop that feeds a broadcast.Broadcaster,
// and clipboard access. Concrete drivers live in backend/unix,
// backend/windows, and backend/virtual. Modeled on the teacher's Terminal
// interface (terminal/terminal.go), generalized from direct per-call error
// returns to ref-counted scope.Handle acquisitions for anything that must
// be restored on release, and from synchronous calls to an explicit
// Start(ctx)-driven input loop so events flow through one broadcaster
// instead of being read back out of the Terminal directly.
package backend

import (
	"context"

	"github.com/corvidterm/term/broadcast"
	"github.com/corvidterm/term/capabilities"
	"github.com/corvidterm/term/clipboard"
	"github.com/corvidterm/term/event"
	"github.com/corvidterm/term/scope"
)

// RawModeKind selects how aggressively input processing is disabled.
type RawModeKind int

const (
	// RawModeCbreak disables line buffering and echo but keeps signal
	// generation (Ctrl+C still raises SIGINT at the OS level).
	RawModeCbreak RawModeKind = iota
	// RawModeRaw additionally disables signal generation, so Ctrl+C
	// arrives as an ordinary input byte.
	RawModeRaw
)

// Backend is the low-level terminal driver a session is built on.
type Backend interface {
	// Capabilities returns the detected capability snapshot for this
	// backend's output stream.
	Capabilities() capabilities.Capabilities

	// Size returns the current terminal dimensions.
	Size() (event.Size, error)

	// Write sends already-composed output (text, ANSI sequences) to the
	// primary output stream, serialized against concurrent writers.
	Write(s string) error
	// WriteError is the same as Write but targets the error stream.
	WriteError(s string) error
	// WriteAtomic batches every write fn performs into a single
	// underlying write, holding the output lock for the whole callback.
	WriteAtomic(fn func(w interface{ WriteString(string) (int, error) })) error

	// Subscribe creates a new unbounded FIFO event subscription.
	Subscribe() *broadcast.Subscription
	// DefaultSubscription returns the lazily-created bounded, drop-oldest
	// subscription shared by callers that don't need their own queue.
	DefaultSubscription() *broadcast.Subscription

	// EnterRawMode acquires raw/cbreak input mode. Every nested
	// acquisition, whatever its kind, just bumps a refcount: the kind
	// applied by the first acquisition stays in effect (a RawModeRaw
	// request while cbreak is held does not upgrade it), and the original
	// mode is restored when the last handle of any kind is disposed.
	EnterRawMode(kind RawModeKind) (*scope.Handle, error)
	// EnterAlternateScreen switches to the alternate screen buffer.
	EnterAlternateScreen() (*scope.Handle, error)
	// HideCursor hides the cursor.
	HideCursor() (*scope.Handle, error)
	// EnableMouse acquires mouse tracking at the given rank (see
	// scope.MouseRank); nested acquisitions stack by highest rank held.
	EnableMouse(rank scope.MouseRank) (*scope.Handle, error)
	// EnableBracketedPaste turns on bracketed-paste framing.
	EnableBracketedPaste() (*scope.Handle, error)
	// UseTitle sets the terminal title, restoring the previous title
	// (if readable) when released.
	UseTitle(title string) (*scope.Handle, error)

	// SetCursorPosition moves the cursor to a 0-based (row, col).
	SetCursorPosition(row, col int) error
	// QueryCursorPosition asks the terminal for the live cursor position
	// (CPR) and blocks until the report arrives or ctx is done.
	QueryCursorPosition(ctx context.Context) (row, col int, err error)

	// Clipboard returns the best available clipboard provider for this
	// backend, or nil if none is available.
	Clipboard() clipboard.Provider

	// Start launches the input loop, publishing decoded events to the
	// broadcaster until ctx is done or Close is called.
	Start(ctx context.Context) error
	// Close stops the input loop and releases OS resources. Safe to call
	// even if Start was never called.
	Close() error
}
