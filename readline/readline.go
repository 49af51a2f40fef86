// Package readline implements the capability-driven interactive line
// editor: cursor/selection motion, history, completion, undo/redo and
// reverse-incremental search, driven by the broadcast package's event
// stream and rendered through a single atomic output block per redraw.
// Grounded on the teacher's textarea domain/service split
// (cursor_movement.go, editing.go, navigation.go) and keybindings
// dispatch (infrastructure/keybindings/emacs.go), collapsed from the
// teacher's immutable-copy multiline TextArea into a single-line,
// mutable Editor since ReadLine has no line-wrap/vertical-scroll concerns.
package readline

import (
	"context"

	term "github.com/corvidterm/term"
	"github.com/corvidterm/term/cellwidth"
	"github.com/corvidterm/term/event"
)

// EventSource is the subset of *broadcast.Subscription the editor needs;
// satisfied directly by that type.
type EventSource interface {
	Recv(ctx context.Context) (event.Event, error)
}

// OutputSink is the subset of backend.Backend / terminal.Session the
// editor writes through; satisfied directly by both.
type OutputSink interface {
	Write(s string) error
	WriteAtomic(fn func(w interface{ WriteString(string) (int, error) })) error
}

// Clipboard is the subset of terminal.Session the editor uses for the
// Paste/CopySelection/CutSelection commands.
type Clipboard interface {
	GetClipboardText() (string, bool)
	SetClipboardText(text string) bool
}

// Completion is one candidate a CompletionHandler offers for the text
// span [ReplaceStart, ReplaceStart+ReplaceLength) of the buffer.
type Completion struct {
	Text          string
	ReplaceStart  int
	ReplaceLength int
}

// CompletionHandler produces completion candidates for the buffer's
// current content and cursor position (both byte offsets).
type CompletionHandler func(buffer string, cursor int) []Completion

// MarkupRenderer renders the visible slice of the buffer (already clipped
// to the view window) into the literal text written to the terminal,
// e.g. to apply selection highlighting or keyword coloring. A nil
// renderer writes the slice verbatim.
type MarkupRenderer func(visible string) string

// KeyHandler is an application pre-dispatch hook: if it returns true the
// event is considered fully handled and the editor's own dispatch is
// skipped for that event.
type KeyHandler func(c *Editor, k event.KeyEvent) (handled bool)

// MouseHandler is the mouse equivalent of KeyHandler.
type MouseHandler func(c *Editor, m event.MouseEvent) (handled bool)

// Options configures a ReadLine call. The zero Options is usable:
// editing, history and bracketed paste are all off by default so a
// caller must opt in to the behavior it wants, mirroring how the spec
// lists every option as something that "effects" a change from a plain
// silent-echo read.
type Options struct {
	Prompt string

	Echo                 bool
	ViewWidth            int
	MaxLength            int
	EmitNewlineOnAccept  bool
	EnableEditing        bool
	EnableHistory        bool
	AddToHistory         bool
	EnableBracketedPaste bool
	EnableMouseEditing   bool

	// TreatControlCAsInput mirrors decoder.Options.TreatCtrlCAsInput for
	// the caller's backend: the decoder always emits a Key{Unknown, 'c',
	// Ctrl} event for Ctrl+C and additionally emits Signal(Interrupt) when
	// the backend was configured with TreatCtrlCAsInput=false. The editor
	// needs to know which of the two events is authoritative so a single
	// physical Ctrl+C isn't handled twice.
	TreatControlCAsInput bool

	KeyBindings       KeyBindings
	KeyHandler        KeyHandler
	MouseHandler      MouseHandler
	CompletionHandler CompletionHandler
	MarkupRenderer    MarkupRenderer

	// History is the per-options-instance history ReadLine reads/appends
	// to when EnableHistory/AddToHistory are set. Reuse the same History
	// across calls to share it; leave nil to get an ephemeral one.
	History *History
}

type mode int

const (
	modeNormal mode = iota
	modeReverseSearch
)

type undoSnapshot struct {
	buffer string
	cursor int
}

// Editor is the ReadLine state machine for a single ReadLine call. A
// new Editor is created per call per spec §3 ("the ReadLine state is
// created per call and discarded on return/cancel"); it is not safe for
// concurrent use.
type Editor struct {
	sink   OutputSink
	events EventSource
	clip   Clipboard
	opts   Options
	bind   KeyBindings

	buffer     string
	cursor     int
	selStart   int
	selLen     int
	selAnchor  int
	mouseAnchor int
	viewStart  int
	viewWidth  int

	history       *History
	historyCursor int // -1 while not browsing history
	historyStash  string

	undoStack []undoSnapshot
	redoStack []undoSnapshot
	batching  bool

	mode           mode
	searchQuery    string
	searchHitIndex int
	preSearchBuf   string
	preSearchCur   int

	completing        bool
	completions       []Completion
	completionIndex   int
	completionSpanStart int
	completionSpanLen   int
}

// New creates an Editor reading events from events and writing through
// sink, per opts.
func New(sink OutputSink, events EventSource, clip Clipboard, opts Options) *Editor {
	bind := opts.KeyBindings
	if bind == nil {
		bind = DefaultKeyBindings()
	} else {
		merged := DefaultKeyBindings()
		for k, v := range bind {
			merged[k] = v
		}
		bind = merged
	}
	hist := opts.History
	if hist == nil {
		hist = NewHistory(0)
	}
	return &Editor{
		sink:          sink,
		events:        events,
		clip:          clip,
		opts:          opts,
		bind:          bind,
		history:       hist,
		historyCursor: -1,
		viewWidth:     opts.ViewWidth,
	}
}

// Run drives the editor until the line is accepted, cancelled, or the
// event stream ends, or ctx is done. On acceptance it returns the
// accepted text. Cancellation (user Ctrl+C/Escape with no selection, or
// ctx.Done) returns term.ErrCancelled; stream completion returns
// term.ErrEndOfInput.
func (e *Editor) Run(ctx context.Context) (string, error) {
	if e.opts.Echo {
		e.redraw()
	}

	for {
		ev, err := e.events.Recv(ctx)
		if err != nil {
			return "", term.New("readline.Run", term.KindEndOfInput, err)
		}

		switch ev.Kind {
		case event.KindKey:
			result, done, line, err := e.handleKey(ev.Key)
			if done {
				return line, err
			}
			if result && e.opts.Echo {
				e.redraw()
			}
		case event.KindText:
			if e.mode == modeReverseSearch {
				e.searchAppend(ev.Text)
			} else if e.opts.EnableEditing || e.cursor == len(e.buffer) {
				e.insertText(ev.Text)
			}
			if e.opts.Echo {
				e.redraw()
			}
		case event.KindPaste:
			if e.opts.EnableBracketedPaste {
				e.insertPaste(ev.Paste)
				if e.opts.Echo {
					e.redraw()
				}
			}
		case event.KindMouse:
			if e.opts.EnableMouseEditing {
				e.handleMouse(ev.Mouse)
				if e.opts.Echo {
					e.redraw()
				}
			}
		case event.KindResize:
			if e.opts.ViewWidth == 0 {
				e.viewWidth = int(ev.Size.Cols)
			}
			if e.opts.Echo {
				e.redraw()
			}
		case event.KindSignal:
			if ev.Sig == event.SignalInterrupt && !e.opts.TreatControlCAsInput {
				_, done, line, cerr := e.handleCtrlC()
				if done {
					return line, cerr
				}
				if e.opts.Echo {
					e.redraw()
				}
			}
		}
	}
}

// handleKey dispatches one key event, returning (changed, done, line, err).
// done is true once the editor has a final result to return from Run.
func (e *Editor) handleKey(k event.KeyEvent) (changed, done bool, line string, err error) {
	if e.opts.KeyHandler != nil && e.opts.KeyHandler(e, k) {
		return true, false, "", nil
	}

	if e.mode == modeReverseSearch {
		return e.handleKeyInSearch(k)
	}

	if e.opts.TreatControlCAsInput && k.Key == event.KeyUnknown && k.Char == 'c' && k.Mods == event.ModCtrl {
		return e.handleCtrlC()
	}

	if k.Mods.HasShift() && (k.Key == event.KeyLeft || k.Key == event.KeyRight ||
		k.Key == event.KeyHome || k.Key == event.KeyEnd) {
		e.extendSelection(k.Key)
		return true, false, "", nil
	}

	if e.completing && k.Key != event.KeyTab {
		e.completing = false
	}

	cmd, matched := e.bind.lookup(k)
	if !matched {
		if k.Key == event.KeyUnknown && k.Char != 0 && k.Mods == event.ModNone {
			// Per-char Key{Unknown} companion to a Text event; Text
			// already performed the insert, so this is a no-op to avoid
			// double insertion.
			return false, false, "", nil
		}
		return false, false, "", nil
	}

	switch cmd {
	case CommandCursorHome:
		e.clearSelection()
		e.endBatch()
		e.cursor = 0
	case CommandCursorEnd:
		e.clearSelection()
		e.endBatch()
		e.cursor = len(e.buffer)
	case CommandCursorLeft:
		e.clearSelection()
		e.endBatch()
		e.cursor = cellwidth.PrevGrapheme(e.buffer, e.cursor)
	case CommandCursorRight:
		e.clearSelection()
		e.endBatch()
		e.cursor = cellwidth.NextGrapheme(e.buffer, e.cursor)
	case CommandWordLeft:
		e.clearSelection()
		e.endBatch()
		e.cursor = cellwidth.WordStart(e.buffer, e.cursor)
	case CommandWordRight:
		e.clearSelection()
		e.endBatch()
		e.cursor = cellwidth.WordEnd(e.buffer, e.cursor)
	case CommandBackspaceChar:
		if !e.opts.EnableEditing && e.cursor != len(e.buffer) {
			break
		}
		e.backspaceChar()
	case CommandBackspaceWord:
		if e.opts.EnableEditing {
			e.backspaceWord()
		}
	case CommandDeleteChar:
		if e.opts.EnableEditing {
			e.deleteChar()
		}
	case CommandDeleteWord:
		if e.opts.EnableEditing {
			e.deleteWord()
		}
	case CommandCutSelection:
		e.cutSelection()
	case CommandCopySelection:
		e.copySelection()
	case CommandPaste:
		e.pasteClipboard()
	case CommandAccept:
		return e.accept()
	case CommandCancel:
		l, err := e.cancel()
		return true, true, l, err
	case CommandUndo:
		e.undo()
	case CommandRedo:
		e.redo()
	case CommandHistoryPrev:
		if e.opts.EnableHistory {
			e.historyPrev()
		}
	case CommandHistoryNext:
		if e.opts.EnableHistory {
			e.historyNext()
		}
	case CommandReverseSearch:
		if e.opts.EnableHistory {
			e.enterSearch()
		}
	case CommandClearLine:
		e.clearLine()
	case CommandComplete:
		if e.opts.CompletionHandler != nil {
			e.complete()
		}
	case CommandIgnore:
	}
	return true, false, "", nil
}

// Ctrl+C with an active selection copies instead of cancelling (spec
// §4.J failure semantics: "Cancel (Ctrl+C without selection)").
func (e *Editor) handleCtrlC() (changed, done bool, line string, err error) {
	if e.selLen > 0 {
		e.copySelection()
		return true, false, "", nil
	}
	l, cerr := e.cancel()
	return true, true, l, cerr
}

func (e *Editor) accept() (changed, done bool, line string, err error) {
	text := e.buffer
	if e.opts.Echo && e.opts.EmitNewlineOnAccept {
		_ = e.sink.Write("\n")
	}
	if e.opts.EnableHistory && e.opts.AddToHistory {
		e.history.Add(text)
	}
	return true, true, text, nil
}

func (e *Editor) cancel() (string, error) {
	return "", term.ErrCancelled
}

func (e *Editor) bell() {
	_ = e.sink.Write("\a")
}
