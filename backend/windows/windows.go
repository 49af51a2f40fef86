//go:build windows

// Package windows implements backend.Backend for native Windows consoles
// using ReadConsoleInputW record batches and SetConsoleMode, rather than
// relying on an ANSI escape decoder for input. Grounded on the teacher's
// terminal/internal/infrastructure/windows/console.go (EnterRawMode's
// ENABLE_VIRTUAL_TERMINAL_INPUT/ENABLE_LINE_INPUT/ENABLE_ECHO_INPUT bit
// manipulation), extended from Console's single-mode toggle into an
// event-producing input loop over KEY_EVENT/MOUSE_EVENT/
// WINDOW_BUFFER_SIZE_EVENT records.
package windows

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/windows"

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

// VtInputDecoderMode selects whether the backend routes a console key
// record's raw UnicodeChar through the shared ANSI/VT decoder (package
// decoder) instead of translating it directly to a Key event, so
// bracketed paste and SGR mouse reports work identically to the Unix
// backend. Corresponds to the spec's windows_vt_input_decoder option.
type VtInputDecoderMode int

const (
	// VtInputDecoderAuto negotiates ENABLE_VIRTUAL_TERMINAL_INPUT and
	// routes through the decoder only if the console retains the mode bit
	// after EnterRawMode sets it (some hosts silently ignore it).
	VtInputDecoderAuto VtInputDecoderMode = iota
	// VtInputDecoderEnabled routes UnicodeChar through the decoder once
	// EnterRawMode has run, regardless of whether the mode bit stuck.
	VtInputDecoderEnabled
	// VtInputDecoderDisabled never negotiates VT input and always
	// translates VIRTUAL_KEY/UnicodeChar directly.
	VtInputDecoderDisabled
)

const (
	enableProcessedInput = 0x0001
	enableLineInput      = 0x0002
	enableEchoInput      = 0x0004
	enableWindowInput    = 0x0008
	enableMouseInput     = 0x0010
	enableVTInput        = 0x0200

	enableVTProcessing = 0x0004
)

// Backend is the native Windows console driver.
type Backend struct {
	in, out, errOut *os.File
	hin, hout       windows.Handle

	outW *output.Writer
	errW *output.Writer

	caps   capabilities.Capabilities
	clip   clipboard.Provider
	scopes *scope.Registry
	mouse  *scope.MouseStack

	broadcaster *broadcast.Broadcaster

	vtMode   VtInputDecoderMode
	vtActive bool
	dec      *decoder.Decoder

	lastMouseButtons uint32

	pendingCursorMu sync.Mutex
	pendingCursor   chan [2]int

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Windows console backend over in/out/errOut.
func New(in, out, errOut *os.File) *Backend {
	b := &Backend{
		in: in, out: out, errOut: errOut,
		hin:  windows.Handle(in.Fd()),
		hout: windows.Handle(out.Fd()),
	}
	b.outW = output.New(out)
	b.errW = output.New(errOut)
	b.scopes = scope.NewRegistry()
	b.broadcaster = broadcast.New()
	b.caps = capabilities.NewDetector(out, in).Detect()
	b.mouse = scope.NewMouseStack(b.applyMouseMode)
	b.clip = clipboard.NewWindowsProvider()
	b.dec = decoder.New(decoder.Options{})

	var outMode uint32
	if err := windows.GetConsoleMode(b.hout, &outMode); err == nil {
		_ = windows.SetConsoleMode(b.hout, outMode|enableVTProcessing)
	}
	return b
}

// SetVtInputDecoderMode configures VT input routing (default
// VtInputDecoderAuto). The mode is read when EnterRawMode first applies
// raw mode, so it must be set before that.
func (b *Backend) SetVtInputDecoderMode(mode VtInputDecoderMode) {
	b.vtMode = mode
}

func (b *Backend) Capabilities() capabilities.Capabilities { return b.caps }

func (b *Backend) Size() (event.Size, error) {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(b.hout, &info); err != nil {
		return event.Size{}, term.New("windows.Size", term.KindIOFailure, err)
	}
	cols := int(info.Window.Right-info.Window.Left) + 1
	rows := int(info.Window.Bottom-info.Window.Top) + 1
	return event.Size{Cols: uint(cols), Rows: uint(rows)}, nil
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
		var orig uint32
		if err := windows.GetConsoleMode(b.hin, &orig); err != nil {
			applyErr = err
			return func() {}
		}
		raw := orig
		raw &^= enableLineInput | enableEchoInput | enableWindowInput
		if kind == backend.RawModeRaw {
			raw &^= enableProcessedInput
		}
		if b.vtMode != VtInputDecoderDisabled {
			raw |= enableVTInput
		}
		if err := windows.SetConsoleMode(b.hin, raw); err != nil {
			applyErr = err
			return func() {}
		}
		b.vtActive = b.resolveVtActive()
		return func() { _ = windows.SetConsoleMode(b.hin, orig) }
	})
	if applyErr != nil {
		h.Dispose()
		return nil, term.New("EnterRawMode", term.KindIOFailure, applyErr)
	}
	return h, nil
}

// resolveVtActive decides whether subsequent key records should be routed
// through the shared VT decoder: Enabled always routes, Disabled never
// does, and Auto routes only if the console actually retained
// ENABLE_VIRTUAL_TERMINAL_INPUT after EnterRawMode set it (some hosts
// silently ignore the bit).
func (b *Backend) resolveVtActive() bool {
	switch b.vtMode {
	case VtInputDecoderEnabled:
		return true
	case VtInputDecoderDisabled:
		return false
	default:
		var actual uint32
		if err := windows.GetConsoleMode(b.hin, &actual); err != nil {
			return false
		}
		return actual&enableVTInput != 0
	}
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
	var mode uint32
	if err := windows.GetConsoleMode(b.hin, &mode); err != nil {
		return
	}
	if rank == scope.MouseRankOff {
		mode &^= enableMouseInput
	} else {
		mode |= enableMouseInput
	}
	_ = windows.SetConsoleMode(b.hin, mode)
}

func (b *Backend) EnableBracketedPaste() (*scope.Handle, error) {
	h := b.scopes.Acquire("bracketed-paste", func() func() {
		_ = b.Write("\x1b[?2004h")
		return func() { _ = b.Write("\x1b[?2004l") }
	})
	return h, nil
}

func (b *Backend) UseTitle(title string) (*scope.Handle, error) {
	h := b.scopes.Acquire("title", func() func() {
		_ = windows.SetConsoleTitle(title)
		return func() { _ = windows.SetConsoleTitle("") }
	})
	return h, nil
}

func (b *Backend) SetCursorPosition(row, col int) error {
	return windows.SetConsoleCursorPosition(b.hout, windows.Coord{X: int16(col), Y: int16(row)})
}

func (b *Backend) QueryCursorPosition(ctx context.Context) (int, int, error) {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(b.hout, &info); err != nil {
		return 0, 0, term.New("QueryCursorPosition", term.KindIOFailure, err)
	}
	return int(info.CursorPosition.Y), int(info.CursorPosition.X), nil
}

func (b *Backend) Clipboard() clipboard.Provider { return b.clip }

func (b *Backend) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.wg.Add(1)
	go b.inputLoop(ctx)
	return nil
}

func (b *Backend) inputLoop(ctx context.Context) {
	defer b.wg.Done()
	records := make([]inputRecord, 32)
	for {
		select {
		case <-ctx.Done():
			b.broadcaster.Complete(nil)
			return
		default:
		}

		n, err := readConsoleInput(b.hin, records, 50*time.Millisecond)
		if err != nil {
			b.broadcaster.Complete(term.New("inputLoop", term.KindIOFailure, err))
			return
		}
		if n == 0 {
			if b.vtActive {
				for _, ev := range b.dec.Decode("", true) {
					b.broadcaster.Publish(ev)
				}
			}
			continue
		}
		for i := 0; i < n; i++ {
			for _, ev := range b.translate(records[i]) {
				b.broadcaster.Publish(ev)
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
