//go:build !windows

// Package unix implements backend.Backend for Unix-like systems using
// termios raw/cbreak mode, a poll+read input loop, and ANSI/DEC private
// mode escape sequences for alt screen, cursor visibility, mouse tracking
// and bracketed paste. Grounded on the teacher's
// terminal/infrastructure/unix/ansi.go (ANSI operations built on
// golang.org/x/term) generalized into an event-producing backend rather
// than a synchronous Terminal, and on tea's cancelable_reader.go for the
// poll-driven read-loop shape.
package unix

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"

	term "github.com/corvidterm/term"
	"github.com/corvidterm/term/backend"
	"github.com/corvidterm/term/broadcast"
	"github.com/corvidterm/term/capabilities"
	"github.com/corvidterm/term/clipboard"
	"github.com/corvidterm/term/decoder"
	"github.com/corvidterm/term/event"
	"github.com/corvidterm/term/output"
	"github.com/corvidterm/term/scope"
)

const pollIntervalMillis = 50
const cursorQueryTimeout = 250 * time.Millisecond

// Backend is the Unix terminal driver.
type Backend struct {
	in, out, errOut *os.File

	outW *output.Writer
	errW *output.Writer

	caps  capabilities.Capabilities
	clip  clipboard.Provider
	scopes *scope.Registry
	mouse *scope.MouseStack

	broadcaster *broadcast.Broadcaster
	dec         *decoder.Decoder

	pendingCursorMu sync.Mutex
	pendingCursor   chan [2]int

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Unix backend reading from in and writing to out/errOut
// (normally os.Stdin/os.Stdout/os.Stderr).
func New(in, out, errOut *os.File) *Backend {
	b := &Backend{in: in, out: out, errOut: errOut}
	b.outW = output.New(out)
	b.errW = output.New(errOut)
	b.scopes = scope.NewRegistry()
	b.broadcaster = broadcast.New()
	b.caps = capabilities.NewDetector(out, in).Detect()
	b.mouse = scope.NewMouseStack(b.applyMouseMode)
	b.clip = clipboard.NewChain(clipboard.NewUnixProvider(), clipboard.NewOSC52Provider(out))
	b.dec = decoder.New(decoder.Options{OnCursorReport: b.onCursorReport})
	return b
}

func (b *Backend) Capabilities() capabilities.Capabilities { return b.caps }

func (b *Backend) Size() (event.Size, error) {
	w, h, err := xterm.GetSize(int(b.out.Fd()))
	if err != nil {
		return event.Size{}, term.New("unix.Size", term.KindIOFailure, err)
	}
	return event.Size{Cols: uint(w), Rows: uint(h)}, nil
}

func (b *Backend) Write(s string) error {
	_, err := b.outW.WriteString(s)
	return err
}

func (b *Backend) WriteError(s string) error {
	_, err := b.errW.WriteString(s)
	return err
}

func (b *Backend) WriteAtomic(fn func(w interface{ WriteString(string) (int, error) })) error {
	return b.outW.WriteAtomic(func(w output.AnsiWriter) { fn(w) })
}

func (b *Backend) Subscribe() *broadcast.Subscription            { return b.broadcaster.Subscribe() }
func (b *Backend) DefaultSubscription() *broadcast.Subscription { return b.broadcaster.Default() }

func (b *Backend) EnterRawMode(kind backend.RawModeKind) (*scope.Handle, error) {
	var applyErr error
	h := b.scopes.Acquire("rawmode", func() func() {
		orig, err := setRawMode(int(b.in.Fd()), kind)
		if err != nil {
			applyErr = err
			return func() {}
		}
		fd := int(b.in.Fd())
		return func() { restoreTermios(fd, orig) }
	})
	if applyErr != nil {
		h.Dispose()
		return nil, term.New("EnterRawMode", term.KindIOFailure, applyErr)
	}
	return h, nil
}

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

func (b *Backend) applyMouseMode(rank scope.MouseRank) {
	switch rank {
	case scope.MouseRankOff:
		_ = b.Write("\x1b[?1000l\x1b[?1002l\x1b[?1003l\x1b[?1006l")
	case scope.MouseRankClicks:
		_ = b.Write("\x1b[?1000h\x1b[?1006h")
	case scope.MouseRankDrag:
		_ = b.Write("\x1b[?1002h\x1b[?1006h")
	case scope.MouseRankMove:
		_ = b.Write("\x1b[?1003h\x1b[?1006h")
	}
}

func (b *Backend) EnableBracketedPaste() (*scope.Handle, error) {
	h := b.scopes.Acquire("bracketed-paste", func() func() {
		_ = b.Write("\x1b[?2004h")
		return func() { _ = b.Write("\x1b[?2004l") }
	})
	return h, nil
}

// UseTitle sets the window title via OSC 0. Most terminals have no
// reliable way to query the previous title, so release restores to an
// empty title rather than the (unknowable) prior one.
func (b *Backend) UseTitle(title string) (*scope.Handle, error) {
	h := b.scopes.Acquire("title", func() func() {
		_ = b.Write("\x1b]0;" + title + "\x07")
		return func() { _ = b.Write("\x1b]0;\x07") }
	})
	return h, nil
}

func (b *Backend) SetCursorPosition(row, col int) error {
	return b.Write(fmt.Sprintf("\x1b[%d;%dH", row+1, col+1))
}

func (b *Backend) onCursorReport(row, col int) {
	b.pendingCursorMu.Lock()
	ch := b.pendingCursor
	b.pendingCursor = nil
	b.pendingCursorMu.Unlock()
	if ch != nil {
		select {
		case ch <- [2]int{row, col}:
		default:
		}
	}
}

func (b *Backend) QueryCursorPosition(ctx context.Context) (int, int, error) {
	ch := make(chan [2]int, 1)
	b.pendingCursorMu.Lock()
	b.pendingCursor = ch
	b.pendingCursorMu.Unlock()

	if err := b.Write("\x1b[6n"); err != nil {
		return 0, 0, term.New("QueryCursorPosition", term.KindIOFailure, err)
	}

	timer := time.NewTimer(cursorQueryTimeout)
	defer timer.Stop()
	select {
	case pos := <-ch:
		return pos[0], pos[1], nil
	case <-ctx.Done():
		return 0, 0, term.New("QueryCursorPosition", term.KindCancelled, ctx.Err())
	case <-timer.C:
		return 0, 0, term.New("QueryCursorPosition", term.KindIOFailure, fmt.Errorf("timed out waiting for cursor position report"))
	}
}

func (b *Backend) Clipboard() clipboard.Provider { return b.clip }

func (b *Backend) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)

	b.wg.Add(2)
	go b.inputLoop(ctx)
	go b.resizeLoop(ctx, sigCh)
	return nil
}

func (b *Backend) inputLoop(ctx context.Context) {
	defer b.wg.Done()
	fd := int(b.in.Fd())
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			b.broadcaster.Complete(nil)
			return
		default:
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, pollIntervalMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			b.broadcaster.Complete(term.New("inputLoop", term.KindIOFailure, err))
			return
		}
		if n == 0 {
			for _, ev := range b.dec.Decode("", true) {
				b.broadcaster.Publish(ev)
			}
			continue
		}

		nr, err := unix.Read(fd, buf)
		if err != nil || nr <= 0 {
			continue
		}
		for _, ev := range b.dec.Decode(string(buf[:nr]), false) {
			b.broadcaster.Publish(ev)
		}
	}
}

func (b *Backend) resizeLoop(ctx context.Context, sigCh chan os.Signal) {
	defer b.wg.Done()
	defer signal.Stop(sigCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			if sz, err := b.Size(); err == nil {
				b.broadcaster.Publish(event.NewResize(sz.Cols, sz.Rows))
			}
		}
	}
}

func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		b.wg.Wait()
	})
	return nil
}

var _ backend.Backend = (*Backend)(nil)
